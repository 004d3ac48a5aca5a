// Package sso contiene los services del flujo de identidad externa.
package sso

import (
	"time"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/session"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// Deps contiene las dependencias para crear los services.
type Deps struct {
	Registry    *ssocore.Registry
	Settings    repository.SettingsRepository
	Reconciler  *ssocore.Reconciler
	Lifecycle   *ssocore.Lifecycle
	Sessions    *session.Codec
	Provider    string        // provider name for single-provider surfaces
	StateSecret []byte        // HS256 secret for the OAuth state
	StateTTL    time.Duration // state validity window
}

// Services agrupa los services del dominio.
type Services struct {
	Login LoginService
	Link  LinkService
	State *StateSigner
}

// NewServices crea el agregador de services.
func NewServices(d Deps) Services {
	state := NewStateSigner(d.StateSecret, d.StateTTL)

	return Services{
		Login: NewLoginService(LoginDeps{
			Registry:   d.Registry,
			Settings:   d.Settings,
			Reconciler: d.Reconciler,
			State:      state,
			Sessions:   d.Sessions,
		}),
		Link: NewLinkService(LinkDeps{
			Lifecycle: d.Lifecycle,
			Provider:  d.Provider,
		}),
		State: state,
	}
}
