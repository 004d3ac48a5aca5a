package sso

import (
	"encoding/json"
	"net/http"

	httperrors "github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	svc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
)

// AssociationsController exposes the link state for the profile page.
type AssociationsController struct {
	link svc.LinkService
}

// NewAssociationsController creates a new AssociationsController.
func NewAssociationsController(link svc.LinkService) *AssociationsController {
	return &AssociationsController{link: link}
}

// List handles GET /api/associations
func (c *AssociationsController) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := middlewares.GetUID(ctx)

	states, err := c.link.Associations(ctx, uid)
	if err != nil {
		logger.From(ctx).Error("association lookup failed", logger.UID(uid), logger.Err(err))
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(states)
}
