package repository

import "context"

// Toggle values usados por el panel de administración.
// Se conservan como strings "on"/"off" por compatibilidad con el formato
// del formulario original.
const (
	ToggleOn  = "on"
	ToggleOff = "off"
)

// Settings son los settings del provider SSO, administrables en runtime.
type Settings struct {
	ClientID     string `json:"id"`
	ClientSecret string `json:"secret"`
	SSOLogoURL   string `json:"ssoLogo"`

	// DisableRegistration bloquea la creación de cuentas nuevas vía SSO
	// ("on"/"off"). No afecta el merge por email ni el re-login.
	DisableRegistration string `json:"disableRegistration"`

	// NeedToVerifyEmail indica si el email debe verificarse localmente
	// ("on") o se confía en la aserción del provider ("off").
	NeedToVerifyEmail string `json:"needToVerifyEmail"`
}

// RegistrationDisabled indica si la creación de cuentas nuevas está bloqueada.
func (s *Settings) RegistrationDisabled() bool {
	return s != nil && s.DisableRegistration == ToggleOn
}

// VerifyEmailRequired indica si el email requiere verificación local.
func (s *Settings) VerifyEmailRequired() bool {
	return s != nil && s.NeedToVerifyEmail == ToggleOn
}

// Configured indica si hay credenciales suficientes para operar el flujo.
func (s *Settings) Configured() bool {
	return s != nil && s.ClientID != "" && s.ClientSecret != ""
}

// SettingsRepository define el acceso a los settings del provider.
// Load se llama por request: no hay cache en proceso, un cambio desde el
// admin aplica al siguiente login.
type SettingsRepository interface {
	// Load retorna los settings actuales (ErrNotFound si nunca se guardaron).
	Load(ctx context.Context) (*Settings, error)

	// Save persiste los settings.
	Save(ctx context.Context, s *Settings) error
}
