// Package sso contains controllers for the external identity endpoints.
package sso

import (
	svc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/session"
)

// Controllers agrupa los controllers del dominio.
type Controllers struct {
	Auth   *AuthController
	Deauth *DeauthController
	Assoc  *AssociationsController
}

// NewControllers creates the controllers aggregator.
// baseURL is the public forum URL without trailing slash.
func NewControllers(s svc.Services, sessions *session.Codec, baseURL string) *Controllers {
	return &Controllers{
		Auth:   NewAuthController(s.Login, sessions, baseURL),
		Deauth: NewDeauthController(s.Link, baseURL),
		Assoc:  NewAssociationsController(s.Link),
	}
}
