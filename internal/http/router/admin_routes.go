package router

import (
	"net/http"

	ctrl "github.com/dropDatabas3/ssobridge/internal/http/controllers/admin"
	mw "github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	"github.com/dropDatabas3/ssobridge/internal/metrics"
)

// AdminRouterDeps contiene las dependencias para las rutas admin.
type AdminRouterDeps struct {
	Settings     *ctrl.SettingsController
	Associations *ctrl.AssociationsController
	APIKey       string
}

// RegisterAdminRoutes registra la superficie administrativa.
// Toda ruta pasa por el check de X-Admin-API-Key.
func RegisterAdminRoutes(mux *http.ServeMux, deps AdminRouterDeps) {
	mux.Handle("GET /admin/sso/settings", adminHandler(deps.APIKey, http.HandlerFunc(deps.Settings.Get)))
	mux.Handle("PUT /admin/sso/settings", adminHandler(deps.APIKey, http.HandlerFunc(deps.Settings.Put)))

	mux.Handle("GET /admin/sso/associations/{uid}", adminHandler(deps.APIKey, http.HandlerFunc(deps.Associations.Get)))
	mux.Handle("DELETE /admin/sso/associations/{uid}", adminHandler(deps.APIKey, http.HandlerFunc(deps.Associations.Unlink)))
}

// adminHandler arma el chain para endpoints administrativos.
func adminHandler(apiKey string, handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		metrics.WithHTTP,
		mw.RequireAdminKey(apiKey),
		mw.WithLogging(),
	)
}
