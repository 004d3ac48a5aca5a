package sso

import (
	"context"
	"errors"

	"github.com/dropDatabas3/ssobridge/internal/metrics"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// LinkService expone el estado de vinculación y la desvinculación.
type LinkService interface {
	// Unlink desvincula la identidad externa de la cuenta uid.
	Unlink(ctx context.Context, uid string) error

	// Associations devuelve el estado de vinculación para la página de
	// perfil.
	Associations(ctx context.Context, uid string) ([]*ssocore.AssociationState, error)
}

// LinkDeps contiene las dependencias del link service.
type LinkDeps struct {
	Lifecycle *ssocore.Lifecycle
	Provider  string
}

type linkService struct {
	deps LinkDeps
}

// NewLinkService crea el servicio de vinculación.
func NewLinkService(deps LinkDeps) LinkService {
	return &linkService{deps: deps}
}

func (s *linkService) Unlink(ctx context.Context, uid string) error {
	_, err := s.deps.Lifecycle.Unlink(ctx, uid)
	switch {
	case err == nil:
		metrics.ObserveUnlink(s.deps.Provider, "ok")
	case errors.Is(err, ssocore.ErrNotLinked):
		metrics.ObserveUnlink(s.deps.Provider, "not_linked")
	default:
		metrics.ObserveUnlink(s.deps.Provider, "error")
	}
	return err
}

func (s *linkService) Associations(ctx context.Context, uid string) ([]*ssocore.AssociationState, error) {
	st, err := s.deps.Lifecycle.AssociationState(ctx, uid)
	if err != nil {
		return nil, err
	}
	return []*ssocore.AssociationState{st}, nil
}
