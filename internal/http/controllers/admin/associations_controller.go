package admin

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	httperrors "github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// AssociationsController permite inspeccionar y forzar la desvinculación
// de cuentas desde el panel o el CLI de administración.
type AssociationsController struct {
	lifecycle *ssocore.Lifecycle
	users     repository.UserRepository
}

// NewAssociationsController creates a new AssociationsController.
func NewAssociationsController(lifecycle *ssocore.Lifecycle, users repository.UserRepository) *AssociationsController {
	return &AssociationsController{lifecycle: lifecycle, users: users}
}

// Get handles GET /admin/sso/associations/{uid}
func (c *AssociationsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	uid := r.PathValue("uid")
	if uid == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing uid"))
		return
	}

	u, err := c.users.GetByID(ctx, uid)
	if repository.IsNotFound(err) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	st, err := c.lifecycle.AssociationState(ctx, uid)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"uid":         u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"external_id": u.ExternalID,
		"association": st,
	})
}

// Unlink handles DELETE /admin/sso/associations/{uid}
func (c *AssociationsController) Unlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("admin.AssociationsController.Unlink"))

	uid := r.PathValue("uid")
	if uid == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing uid"))
		return
	}

	if _, err := c.lifecycle.Unlink(ctx, uid); err != nil {
		switch {
		case errors.Is(err, ssocore.ErrNotLinked):
			httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("account not linked"))
		default:
			log.Error("admin unlink failed", logger.UID(uid), logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		}
		return
	}

	log.Info("account unlinked by admin", logger.UID(uid))
	w.WriteHeader(http.StatusNoContent)
}
