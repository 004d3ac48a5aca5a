package sso

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	httperrors "github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	svc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
	"github.com/dropDatabas3/ssobridge/internal/session"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
)

// AuthController handles the start and callback legs of the OAuth flow.
type AuthController struct {
	login    svc.LoginService
	sessions *session.Codec
	baseURL  string
}

// NewAuthController creates a new AuthController.
func NewAuthController(login svc.LoginService, sessions *session.Codec, baseURL string) *AuthController {
	return &AuthController{login: login, sessions: sessions, baseURL: baseURL}
}

// Start handles GET /auth/{provider}
func (c *AuthController) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Start"))

	provider := r.PathValue("provider")
	if provider == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing provider"))
		return
	}

	returnTo := sanitizeReturnTo(r.URL.Query().Get("returnTo"))

	authURL, err := c.login.Start(ctx, provider, returnTo)
	if err != nil {
		log.Warn("start failed", logger.Provider(provider), logger.Err(err))
		c.writeStartError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback
func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AuthController.Callback"))

	// Sesión opcional: si el que vincula ya estaba logueado, el uid previo
	// queda en el log del callback.
	if uid := middlewares.GetUID(ctx); uid != "" {
		log = log.With(logger.String("session_uid", uid))
	}

	provider := r.PathValue("provider")
	if provider == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("missing provider"))
		return
	}

	q := r.URL.Query()

	// El provider puede volver con un error propio antes de entregar code.
	if idpError := strings.TrimSpace(q.Get("error")); idpError != "" {
		log.Warn("provider returned error",
			logger.Provider(provider),
			logger.String("error", idpError),
			logger.String("description", q.Get("error_description")),
		)
		c.redirectLoginError(w, r, idpError)
		return
	}

	state := strings.TrimSpace(q.Get("state"))
	code := strings.TrimSpace(q.Get("code"))
	if state == "" {
		httperrors.WriteError(w, httperrors.ErrInvalidState.WithDetail("state required"))
		return
	}
	if code == "" {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("code required"))
		return
	}

	result, err := c.login.Callback(ctx, provider, code, state)
	if err != nil {
		log.Error("callback failed", logger.Provider(provider), logger.Err(err))
		c.writeCallbackError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	c.sessions.SetCookie(w, result.SessionToken)

	// ReturnURL siempre es un path relativo (ver sanitizeReturnTo).
	target := result.ReturnURL
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, c.baseURL+target, http.StatusFound)
}

func (c *AuthController) writeStartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrProviderNotConfigured):
		httperrors.WriteError(w, httperrors.ErrProviderUnavailable.WithDetail("provider not configured"))
	case strings.Contains(err.Error(), "unknown provider"):
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

func (c *AuthController) writeCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ssocore.ErrRegistrationDisabled):
		c.redirectLoginError(w, r, "sso-registration-disabled")
	case errors.Is(err, svc.ErrAttachIncomplete):
		// La vinculación quedó a medias; los sub-pasos ya escritos quedan y
		// el próximo login los retoma, pero este intento falla de cara al
		// usuario.
		c.redirectLoginError(w, r, "sso-attach-failed")
	case errors.Is(err, svc.ErrStateInvalid),
		errors.Is(err, svc.ErrStateExpired),
		errors.Is(err, svc.ErrStateAudience),
		errors.Is(err, svc.ErrStateProvider):
		httperrors.WriteError(w, httperrors.ErrInvalidState)
	case errors.Is(err, svc.ErrProviderNotConfigured):
		httperrors.WriteError(w, httperrors.ErrProviderUnavailable.WithDetail("provider not configured"))
	case errors.Is(err, svc.ErrExchangeFailed):
		httperrors.WriteError(w, httperrors.ErrProviderUnavailable)
	case strings.Contains(err.Error(), "unknown provider"):
		httperrors.WriteError(w, httperrors.ErrUnknownProvider)
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
	}
}

// redirectLoginError manda al usuario de vuelta a la pantalla de login del
// foro con un tag de error que el frontend sabe traducir.
func (c *AuthController) redirectLoginError(w http.ResponseWriter, r *http.Request, tag string) {
	http.Redirect(w, r, c.baseURL+"/login?error="+url.QueryEscape(tag), http.StatusFound)
}

// sanitizeReturnTo acepta solo paths relativos al foro. Un returnTo
// absoluto externo sería un open redirect; "//" y "/\" se normalizan a URL
// scheme-relative en los browsers, así que también se rechazan.
func sanitizeReturnTo(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || !strings.HasPrefix(v, "/") {
		return ""
	}
	if strings.HasPrefix(v, "//") || strings.HasPrefix(v, `/\`) {
		return ""
	}
	return v
}
