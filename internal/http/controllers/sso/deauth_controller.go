package sso

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	svc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// DeauthController handles the unlink endpoints.
type DeauthController struct {
	link    svc.LinkService
	baseURL string
}

// NewDeauthController creates a new DeauthController.
func NewDeauthController(link svc.LinkService, baseURL string) *DeauthController {
	return &DeauthController{link: link, baseURL: baseURL}
}

// Confirm handles GET /deauth/{provider}: devuelve el estado actual para
// que el frontend arme la pantalla de confirmación.
func (c *DeauthController) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := middlewares.GetUID(ctx)

	states, err := c.link.Associations(ctx, uid)
	if err != nil {
		logger.From(ctx).Error("association lookup failed", logger.UID(uid), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"associations": states,
	})
}

// Unlink handles POST /deauth/{provider}: desvincula y redirige al perfil.
func (c *DeauthController) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := middlewares.GetUID(ctx)
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("DeauthController.Unlink"))

	if err := c.link.Unlink(ctx, uid); err != nil {
		switch {
		case errors.Is(err, ssocore.ErrNotLinked):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("account not linked"))
		default:
			log.Error("unlink failed", logger.UID(uid), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		}
		return
	}

	http.Redirect(w, r, c.baseURL+"/me/edit", http.StatusFound)
}
