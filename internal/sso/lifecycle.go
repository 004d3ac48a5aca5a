package sso

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
)

// ErrUnlink wraps any deletion failure during unlink. The affected uid is
// still reported to the caller; the association may remain dangling.
var ErrUnlink = errors.New("sso: unlink failed")

// ErrNotLinked indicates the account has no external identity to remove.
var ErrNotLinked = errors.New("sso: account not linked")

// AssociationState is the read-only link status for an account, used by the
// profile page to offer either the connect or the disconnect action.
type AssociationState struct {
	Provider   string `json:"name"`
	Associated bool   `json:"associated"`
	AuthURL    string `json:"url,omitempty"`
	DeauthURL  string `json:"deauthUrl,omitempty"`
}

// Lifecycle owns the link lifecycle of one provider: unlink and link-state
// reporting. Login orchestration lives in the HTTP service layer, on top of
// the Reconciler.
type Lifecycle struct {
	users    repository.UserRepository
	assocs   repository.AssociationRepository
	provider string
	baseURL  string
}

// NewLifecycle builds the lifecycle controller for a provider.
// baseURL is the public base URL of the forum (no trailing slash).
func NewLifecycle(users repository.UserRepository, assocs repository.AssociationRepository, provider, baseURL string) *Lifecycle {
	return &Lifecycle{users: users, assocs: assocs, provider: provider, baseURL: baseURL}
}

// Unlink removes both sides of the association for uid. The uid is always
// returned, also on failure, so the caller can log and redirect coherently.
func (l *Lifecycle) Unlink(ctx context.Context, uid string) (string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("sso.lifecycle"),
		logger.UID(uid),
	)

	u, err := l.users.GetByID(ctx, uid)
	if err != nil {
		return uid, fmt.Errorf("%w: load user: %v", ErrUnlink, err)
	}
	if u.ExternalID == "" {
		return uid, ErrNotLinked
	}

	// El lado directo solo se borra si realmente apunta a este uid.
	// Una asociación ajena (estado inconsistente) se reporta y se deja.
	linkedUID, err := l.assocs.GetUID(ctx, u.ExternalID)
	switch {
	case err == nil && linkedUID != uid:
		log.Warn("association points to another uid, skipping forward delete",
			logger.ExternalID(u.ExternalID),
			logger.String("linked_uid", linkedUID),
		)
	case err == nil:
		if err := l.assocs.Delete(ctx, u.ExternalID); err != nil {
			log.Error("could not remove association", logger.ExternalID(u.ExternalID), logger.Err(err))
			return uid, fmt.Errorf("%w: delete association: %v", ErrUnlink, err)
		}
	case !repository.IsNotFound(err):
		return uid, fmt.Errorf("%w: association lookup: %v", ErrUnlink, err)
	}

	if err := l.users.ClearExternalID(ctx, uid); err != nil {
		log.Error("could not clear external id field", logger.Err(err))
		return uid, fmt.Errorf("%w: clear external id: %v", ErrUnlink, err)
	}

	log.Info("account unlinked", logger.ExternalID(u.ExternalID))
	return uid, nil
}

// AssociationState reports whether uid is linked and which action applies.
func (l *Lifecycle) AssociationState(ctx context.Context, uid string) (*AssociationState, error) {
	u, err := l.users.GetByID(ctx, uid)
	if err != nil {
		return nil, err
	}

	st := &AssociationState{Provider: l.provider}
	if u.ExternalID != "" {
		st.Associated = true
		st.DeauthURL = l.baseURL + "/deauth/" + l.provider
	} else {
		st.AuthURL = l.baseURL + "/auth/" + l.provider
	}
	return st, nil
}
