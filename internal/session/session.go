// Package session firma y valida la cookie de sesión del bridge.
// La sesión es un JWT HS256 con el uid local como subject; no hay estado
// del lado del servidor.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSession = errors.New("session: invalid token")
	ErrExpiredSession = errors.New("session: token expired")
)

// Config controla el nombre y los atributos de la cookie emitida.
type Config struct {
	Secret     []byte
	CookieName string
	Domain     string
	SameSite   http.SameSite
	Secure     bool
	TTL        time.Duration
}

// Codec emite y valida cookies de sesión.
type Codec struct {
	cfg Config
	now func() time.Time
}

// NewCodec construye el codec. TTL y cookie name deben venir resueltos
// desde config.
func NewCodec(cfg Config) *Codec {
	return &Codec{cfg: cfg, now: time.Now}
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue firma un token de sesión para uid.
func (c *Codec) Issue(uid string) (string, error) {
	now := c.now()
	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.cfg.TTL)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := tok.SignedString(c.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

// Verify valida el token y devuelve el uid.
func (c *Codec) Verify(raw string) (string, error) {
	var cl claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.cfg.Secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredSession
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !tok.Valid || cl.Subject == "" {
		return "", ErrInvalidSession
	}
	return cl.Subject, nil
}

// SetCookie escribe la cookie de sesión en la respuesta.
func (c *Codec) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   int(c.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// ClearCookie invalida la cookie de sesión.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   c.cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	})
}

// CookieName expone el nombre configurado, para middlewares.
func (c *Codec) CookieName() string { return c.cfg.CookieName }
