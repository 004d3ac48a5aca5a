// Package admin contains controllers for the admin API surface. Every
// route here sits behind the X-Admin-API-Key middleware.
package admin

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	httperrors "github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
)

// redactedSecret es lo que se devuelve en lugar del client_secret real.
const redactedSecret = "********"

// SettingsController administra los settings del provider SSO.
type SettingsController struct {
	settings repository.SettingsRepository
}

// NewSettingsController creates a new SettingsController.
func NewSettingsController(settings repository.SettingsRepository) *SettingsController {
	return &SettingsController{settings: settings}
}

// Get handles GET /admin/sso/settings
func (c *SettingsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := c.settings.Load(ctx)
	if repository.IsNotFound(err) {
		s = &repository.Settings{}
	} else if err != nil {
		logger.From(ctx).Error("settings load failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	// El secret nunca sale del proceso, ni para el admin.
	out := *s
	if out.ClientSecret != "" {
		out.ClientSecret = redactedSecret
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}

// Put handles PUT /admin/sso/settings
func (c *SettingsController) Put(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SettingsController.Put"))

	var in repository.Settings
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&in); err != nil {
		httperrors.WriteError(w, httperrors.ErrInvalidJSON)
		return
	}

	if !validToggle(in.DisableRegistration) {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(`disableRegistration must be "on", "off" or empty`))
		return
	}
	if !validToggle(in.NeedToVerifyEmail) {
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(`needToVerifyEmail must be "on", "off" or empty`))
		return
	}

	// Un secret redactado significa "conservar el actual".
	if in.ClientSecret == redactedSecret {
		current, err := c.settings.Load(ctx)
		if err != nil && !repository.IsNotFound(err) {
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
			return
		}
		if current != nil {
			in.ClientSecret = current.ClientSecret
		} else {
			in.ClientSecret = ""
		}
	}

	if err := c.settings.Save(ctx, &in); err != nil {
		log.Error("settings save failed", logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	log.Info("sso settings updated",
		logger.Bool("configured", in.Configured()),
		logger.String("disable_registration", in.DisableRegistration),
		logger.String("need_to_verify_email", in.NeedToVerifyEmail),
	)

	w.WriteHeader(http.StatusNoContent)
}

func validToggle(v string) bool {
	switch strings.TrimSpace(v) {
	case "", repository.ToggleOn, repository.ToggleOff:
		return true
	}
	return false
}
