// Package kv implementa repositorios sobre el key/value durable
// (internal/cache). Acá vive el lado directo de la asociación SSO y los
// settings del provider.
package kv

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/ssobridge/internal/cache"
	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
)

// associationRepo implementa repository.AssociationRepository.
// Key space: <provider>id:uid:<externalId> → uid, heredado del esquema
// original del plugin ("baitedaid:uid").
type associationRepo struct {
	kv       cache.Client
	provider string
}

// NewAssociations crea el repositorio de asociaciones para un provider.
func NewAssociations(kv cache.Client, provider string) repository.AssociationRepository {
	return &associationRepo{kv: kv, provider: provider}
}

func (r *associationRepo) key(externalID string) string {
	return fmt.Sprintf("%sid:uid:%s", r.provider, externalID)
}

func (r *associationRepo) GetUID(ctx context.Context, externalID string) (string, error) {
	uid, err := r.kv.Get(ctx, r.key(externalID))
	if cache.IsNotFound(err) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("kv: get association: %w", err)
	}
	return uid, nil
}

func (r *associationRepo) Set(ctx context.Context, externalID, uid string) error {
	if externalID == "" || uid == "" {
		return repository.ErrInvalidInput
	}
	if err := r.kv.Set(ctx, r.key(externalID), uid, 0); err != nil {
		return fmt.Errorf("kv: set association: %w", err)
	}
	return nil
}

func (r *associationRepo) Delete(ctx context.Context, externalID string) error {
	if err := r.kv.Delete(ctx, r.key(externalID)); err != nil {
		return fmt.Errorf("kv: delete association: %w", err)
	}
	return nil
}
