package sso

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/metrics"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
	"github.com/dropDatabas3/ssobridge/internal/session"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// Errores del flujo de login.
var (
	ErrProviderNotConfigured = errors.New("sso: provider has no client credentials configured")
	ErrExchangeFailed        = errors.New("sso: code exchange with provider failed")
	ErrAttachIncomplete      = errors.New("sso: identity attach incomplete")
)

// LoginResult es el resultado de un callback procesado.
type LoginResult struct {
	UID          string
	Outcome      ssocore.Outcome
	SessionToken string
	ReturnURL    string
}

// LoginService orquesta el flujo start → provider → callback.
type LoginService interface {
	// Start arma la URL de autorización del provider con un state firmado.
	Start(ctx context.Context, providerName, returnURL string) (string, error)

	// Callback valida el state, canjea el code, reconcilia la identidad y
	// emite la sesión local.
	Callback(ctx context.Context, providerName, code, state string) (*LoginResult, error)
}

// LoginDeps contiene las dependencias del login service.
type LoginDeps struct {
	Registry   *ssocore.Registry
	Settings   repository.SettingsRepository
	Reconciler *ssocore.Reconciler
	State      *StateSigner
	Sessions   *session.Codec
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea el servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

// bind carga settings frescas y construye el provider con esas credenciales.
// No hay cache: un cambio de credenciales en admin aplica al request
// siguiente.
func (s *loginService) bind(ctx context.Context, providerName string) (ssocore.Provider, *repository.Settings, error) {
	factory, err := s.deps.Registry.Get(providerName)
	if err != nil {
		return nil, nil, err
	}

	settings, err := s.deps.Settings.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if !settings.Configured() {
		return nil, nil, ErrProviderNotConfigured
	}

	return factory.New(settings), settings, nil
}

func (s *loginService) Start(ctx context.Context, providerName, returnURL string) (string, error) {
	provider, _, err := s.bind(ctx, providerName)
	if err != nil {
		return "", err
	}

	state, err := s.deps.State.SignState(providerName, returnURL)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}

	return provider.AuthURL(ctx, state)
}

func (s *loginService) Callback(ctx context.Context, providerName, code, state string) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("sso.login"),
		logger.Provider(providerName),
	)

	provider, settings, err := s.bind(ctx, providerName)
	if err != nil {
		return nil, err
	}

	claims, err := s.deps.State.ParseState(state, providerName)
	if err != nil {
		return nil, err
	}

	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		metrics.ObserveOAuth(providerName, "exchange", "error")
		log.Warn("code exchange failed", logger.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}
	metrics.ObserveOAuth(providerName, "exchange", "ok")

	uid, outcome, err := s.deps.Reconciler.Login(ctx, settings, identity)
	if err != nil {
		switch {
		case errors.Is(err, ssocore.ErrRegistrationDisabled):
			metrics.ObserveLogin(providerName, "denied")
		default:
			metrics.ObserveLogin(providerName, "error")
		}
		// La reconciliación puede fallar a mitad de camino con uid ya
		// resuelto. Los sub-pasos que llegaron a escribirse quedan (no hay
		// rollback), pero el login NO se completa: sin sesión.
		if uid != "" {
			log.Warn("attach incomplete, login denied", logger.UID(uid), logger.Err(err))
			return nil, fmt.Errorf("%w: %v", ErrAttachIncomplete, err)
		}
		return nil, err
	}
	metrics.ObserveLogin(providerName, string(outcome))

	token, err := s.deps.Sessions.Issue(uid)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}

	log.Info("sso login completed",
		logger.UID(uid),
		logger.ExternalID(identity.ExternalID),
		logger.String("outcome", string(outcome)),
	)

	return &LoginResult{
		UID:          uid,
		Outcome:      outcome,
		SessionToken: token,
		ReturnURL:    claims.ReturnURL,
	}, nil
}
