package middlewares

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dropDatabas3/ssobridge/internal/http/errors"
	"github.com/dropDatabas3/ssobridge/internal/session"
)

// RequireSession valida la cookie de sesión y guarda el uid en el contexto.
// Si la cookie falta o es inválida, responde 401.
func RequireSession(codec *session.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(codec.CookieName())
			if err != nil || strings.TrimSpace(ck.Value) == "" {
				errors.WriteError(w, errors.ErrUnauthorized)
				return
			}

			uid, err := codec.Verify(ck.Value)
			if err != nil {
				if err == session.ErrExpiredSession {
					errors.WriteError(w, errors.ErrSessionExpired)
					return
				}
				errors.WriteError(w, errors.ErrUnauthorized.WithDetail("invalid session"))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUID(r.Context(), uid)))
		})
	}
}

// OptionalSession intenta validar la cookie pero NO falla si no está presente.
// Útil para el callback OAuth: un usuario ya logueado que vincula su cuenta
// llega con sesión, uno nuevo llega sin ella.
func OptionalSession(codec *session.Codec) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(codec.CookieName())
			if err != nil || strings.TrimSpace(ck.Value) == "" {
				next.ServeHTTP(w, r)
				return
			}

			uid, err := codec.Verify(ck.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUID(r.Context(), uid)))
		})
	}
}

// RequireAdminKey exige el header X-Admin-API-Key con el valor configurado.
// Protege la superficie /admin; la comparación es en tiempo constante.
func RequireAdminKey(key string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				errors.WriteError(w, errors.ErrForbidden.WithDetail("admin API disabled"))
				return
			}
			got := strings.TrimSpace(r.Header.Get("X-Admin-API-Key"))
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				errors.WriteError(w, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
