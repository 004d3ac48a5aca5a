// Package router define las rutas HTTP del bridge.
package router

import (
	"net/http"

	ctrl "github.com/dropDatabas3/ssobridge/internal/http/controllers/sso"
	mw "github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	"github.com/dropDatabas3/ssobridge/internal/metrics"
	"github.com/dropDatabas3/ssobridge/internal/session"
)

// SSORouterDeps contiene las dependencias para las rutas del flujo SSO.
type SSORouterDeps struct {
	Controllers *ctrl.Controllers
	Sessions    *session.Codec
}

// RegisterSSORoutes registra las rutas del flujo de login y vinculación.
func RegisterSSORoutes(mux *http.ServeMux, deps SSORouterDeps) {
	c := deps.Controllers

	// GET /auth/{provider} - redirect al provider con state firmado
	mux.Handle("GET /auth/{provider}", publicHandler(http.HandlerFunc(c.Auth.Start)))

	// GET /auth/{provider}/callback - canje de code + reconciliación. Un
	// usuario ya logueado que vincula su cuenta llega con sesión; uno nuevo
	// llega sin ella.
	mux.Handle("GET /auth/{provider}/callback", publicHandler(mw.Chain(
		http.HandlerFunc(c.Auth.Callback),
		mw.OptionalSession(deps.Sessions),
	)))

	// GET /deauth/{provider} - estado para la pantalla de confirmación
	mux.Handle("GET /deauth/{provider}", sessionHandler(deps.Sessions, http.HandlerFunc(c.Deauth.Confirm)))

	// POST /deauth/{provider} - desvincular (CSRF double-submit)
	mux.Handle("POST /deauth/{provider}", sessionHandler(deps.Sessions, mw.Chain(
		http.HandlerFunc(c.Deauth.Unlink),
		mw.WithCSRF(mw.CSRFConfig{}),
	)))

	// GET /api/associations - estado de vinculación para el perfil
	mux.Handle("GET /api/associations", sessionHandler(deps.Sessions, http.HandlerFunc(c.Assoc.List)))
}

// publicHandler arma el chain para endpoints sin sesión.
func publicHandler(handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		metrics.WithHTTP,
		mw.WithLogging(),
	)
}

// sessionHandler arma el chain para endpoints que requieren sesión válida.
func sessionHandler(sessions *session.Codec, handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		metrics.WithHTTP,
		mw.RequireSession(sessions),
		mw.WithLogging(),
	)
}
