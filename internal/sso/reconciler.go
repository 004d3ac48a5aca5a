package sso

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
)

// Placeholder domain for profiles that arrive without any email. Guarantees
// every login attempt has an email to key on.
const noreplyDomain = "users.noreply.baiteda.com"

// ErrRegistrationDisabled indicates the profile had no prior association and
// no email match, and the admin disabled SSO registration. Nothing is
// created when it fires.
var ErrRegistrationDisabled = errors.New("sso: registration disabled")

// Outcome describes how a login resolved, for logs and metrics.
type Outcome string

const (
	// OutcomeAssociated: the external id was already linked.
	OutcomeAssociated Outcome = "associated"
	// OutcomeMerged: no association but an account with the same email
	// existed and the identity was attached to it.
	OutcomeMerged Outcome = "merged"
	// OutcomeCreated: a brand new account was created and linked.
	OutcomeCreated Outcome = "created"
)

// VerificationMailer dispatches an email verification message when the
// admin requires local verification. Best effort: failures are logged, the
// login is never blocked by it.
type VerificationMailer interface {
	SendVerification(ctx context.Context, email string) error
}

// Reconciler maps an incoming external identity to exactly one local
// account: attach on re-login, merge by email, or create.
type Reconciler struct {
	users  repository.UserRepository
	assocs repository.AssociationRepository
	mailer VerificationMailer // optional

	// group serializes reconciliation per externalId so concurrent first
	// logins for the same identity cannot both create an account.
	group singleflight.Group
}

// NewReconciler builds the reconciliation engine. mailer may be nil.
func NewReconciler(users repository.UserRepository, assocs repository.AssociationRepository, mailer VerificationMailer) *Reconciler {
	return &Reconciler{users: users, assocs: assocs, mailer: mailer}
}

type loginResult struct {
	uid     string
	outcome Outcome
}

// Login runs the reconciliation state machine and returns the local uid.
//
// Settings are read per attempt and passed in explicitly; the engine keeps
// no settings state of its own. On attach failures the uid reached so far
// is still returned alongside the error: completed sub-steps stay
// committed, there is no rollback.
func (r *Reconciler) Login(ctx context.Context, settings *repository.Settings, id *Identity) (string, Outcome, error) {
	if id == nil || id.ExternalID == "" {
		return "", "", repository.ErrInvalidInput
	}

	v, err, _ := r.group.Do(id.ExternalID, func() (any, error) {
		return r.login(ctx, settings, id)
	})

	res, _ := v.(*loginResult)
	if res == nil {
		return "", "", err
	}
	return res.uid, res.outcome, err
}

func (r *Reconciler) login(ctx context.Context, settings *repository.Settings, id *Identity) (*loginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("sso.reconciler"),
		logger.ExternalID(id.ExternalID),
	)

	email := id.Email
	if email == "" {
		email = id.DisplayName + "@" + noreplyDomain
	}

	// 1. Asociación existente → re-login. Nunca re-corre la política de
	// registro; solo refresca el email almacenado.
	uid, err := r.assocs.GetUID(ctx, id.ExternalID)
	if err == nil {
		if err := r.users.SetEmail(ctx, uid, email); err != nil {
			return &loginResult{uid: uid, outcome: OutcomeAssociated}, fmt.Errorf("update email on re-login: %w", err)
		}
		log.Debug("re-login on linked account", logger.UID(uid))
		return &loginResult{uid: uid, outcome: OutcomeAssociated}, nil
	}
	if !repository.IsNotFound(err) {
		return nil, fmt.Errorf("association lookup: %w", err)
	}

	// 2. Sin asociación: buscar cuenta existente por email.
	uid, err = r.users.GetUIDByEmail(ctx, email)
	switch {
	case err == nil:
		// Merge: cuenta existente con otra identidad externa. El toggle de
		// registro no aplica acá, a propósito.
		if attachErr := r.attach(ctx, settings, uid, id); attachErr != nil {
			return &loginResult{uid: uid, outcome: OutcomeMerged}, attachErr
		}
		log.Info("merged into existing account", logger.UID(uid), logger.Email(email))
		return &loginResult{uid: uid, outcome: OutcomeMerged}, nil

	case repository.IsNotFound(err):
		if settings.RegistrationDisabled() {
			return nil, ErrRegistrationDisabled
		}
		uid, err = r.users.Create(ctx, repository.CreateUserInput{
			Username: usernameFrom(id.DisplayName),
			Email:    email,
		})
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		if attachErr := r.attach(ctx, settings, uid, id); attachErr != nil {
			return &loginResult{uid: uid, outcome: OutcomeCreated}, attachErr
		}
		log.Info("created new account", logger.UID(uid), logger.Email(email))
		return &loginResult{uid: uid, outcome: OutcomeCreated}, nil

	default:
		return nil, fmt.Errorf("email lookup: %w", err)
	}
}

// attach links the identity to the account. Sequential best-effort: a
// failing sub-step aborts and surfaces, already-committed sub-steps stay.
func (r *Reconciler) attach(ctx context.Context, settings *repository.Settings, uid string, id *Identity) error {
	if err := r.users.SetExternalID(ctx, uid, id.ExternalID); err != nil {
		return fmt.Errorf("attach: set external id: %w", err)
	}

	if err := r.assocs.Set(ctx, id.ExternalID, uid); err != nil {
		return fmt.Errorf("attach: set association: %w", err)
	}

	if settings.VerifyEmailRequired() {
		r.dispatchVerification(ctx, uid, id)
	} else {
		// Se confía en la aserción de identidad del provider.
		if err := r.users.ConfirmEmail(ctx, uid); err != nil {
			return fmt.Errorf("attach: confirm email: %w", err)
		}
	}

	if err := r.backfillFullname(ctx, uid, id.DisplayName); err != nil {
		return fmt.Errorf("attach: backfill fullname: %w", err)
	}

	return nil
}

// backfillFullname copia el display name al fullname solo si está vacío.
func (r *Reconciler) backfillFullname(ctx context.Context, uid, displayName string) error {
	if displayName == "" {
		return nil
	}
	u, err := r.users.GetByID(ctx, uid)
	if err != nil {
		return err
	}
	if u.Fullname != "" {
		return nil
	}
	return r.users.SetFullname(ctx, uid, displayName)
}

// dispatchVerification best-effort: nunca bloquea el login.
func (r *Reconciler) dispatchVerification(ctx context.Context, uid string, id *Identity) {
	if r.mailer == nil {
		return
	}
	email := id.Email
	if email == "" {
		return
	}
	if err := r.mailer.SendVerification(ctx, email); err != nil {
		logger.From(ctx).Warn("verification mail dispatch failed",
			logger.Component("sso.reconciler"),
			logger.UID(uid),
			logger.Err(err),
		)
	}
}

// usernameFrom deriva un username del display name generado.
func usernameFrom(displayName string) string {
	return strings.ReplaceAll(strings.TrimSpace(displayName), " ", "-")
}
