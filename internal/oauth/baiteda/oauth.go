// Package baiteda implements OAuth 2.0 authentication with the baiteda
// user center. The provider deviates from the generic flow: client
// credentials and a fixed scope travel in the token POST body (no basic
// auth), and the token response is not guaranteed to be JSON.
package baiteda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Default endpoints of the baiteda user center.
const (
	defaultAuthEndpoint    = "https://user-center.baiteda.com:8443/user_center/api/public/sso/oauth/authorize"
	defaultTokenEndpoint   = "https://user-center.baiteda.com:8443/user_center/api/public/sso/oauth/token"
	defaultProfileEndpoint = "https://user-center.baiteda.com:8443/user_center/api/private/user/detail"
)

// The provider only accepts this scope.
const scopeAll = "all"

// ErrTokenExchange wraps any network or parse failure during the
// code→token exchange. No account state is touched when it fires.
var ErrTokenExchange = errors.New("baiteda: token exchange failed")

// Config configures the OAuth client.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Endpoint overrides, mainly for tests. Empty uses the defaults.
	AuthEndpoint    string
	TokenEndpoint   string
	ProfileEndpoint string

	Timeout time.Duration
}

// OAuth is the baiteda OAuth 2.0 client.
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURL  string

	authEndpoint    string
	tokenEndpoint   string
	profileEndpoint string

	http *http.Client
}

// New creates a baiteda OAuth client.
func New(cfg Config) *OAuth {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	o := &OAuth{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		redirectURL:     cfg.RedirectURL,
		authEndpoint:    cfg.AuthEndpoint,
		tokenEndpoint:   cfg.TokenEndpoint,
		profileEndpoint: cfg.ProfileEndpoint,
		http:            &http.Client{Timeout: timeout},
	}
	if o.authEndpoint == "" {
		o.authEndpoint = defaultAuthEndpoint
	}
	if o.tokenEndpoint == "" {
		o.tokenEndpoint = defaultTokenEndpoint
	}
	if o.profileEndpoint == "" {
		o.profileEndpoint = defaultProfileEndpoint
	}
	return o
}

// Name returns the provider identifier used in routes and logs.
func (o *OAuth) Name() string { return "baiteda" }

// AuthURL builds the authorization URL for the redirect to the provider.
func (o *OAuth) AuthURL(_ context.Context, state string) (string, error) {
	u, err := url.Parse(o.authEndpoint)
	if err != nil {
		return "", fmt.Errorf("baiteda: invalid auth endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", o.clientID)
	q.Set("redirect_uri", o.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", scopeAll)
	q.Set("state", state)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Token is the result of a successful grant.
// RefreshToken is stripped out of RawClaims before the token is handed on.
type Token struct {
	AccessToken  string
	RefreshToken string
	RawClaims    map[string]string
}

// ExchangeCode exchanges an authorization code for an access token.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	return o.grant(ctx, "authorization_code", "code", code)
}

// Refresh exchanges a refresh token for a fresh access token.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	return o.grant(ctx, "refresh_token", "refresh_token", refreshToken)
}

// grant performs the token POST. client_id, client_secret and scope=all go
// in the form body; the provider rejects header-based basic auth.
func (o *OAuth) grant(ctx context.Context, grantType, codeParam, codeValue string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", grantType)
	form.Set("client_id", o.clientID)
	form.Set("client_secret", o.clientSecret)
	form.Set("scope", scopeAll)
	form.Set(codeParam, codeValue)

	req, err := http.NewRequestWithContext(ctx, "POST", o.tokenEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTokenExchange, err)
	}

	results, err := parseTokenBody(body)
	if err != nil {
		return nil, err
	}

	if e := results["error"]; e != "" {
		return nil, fmt.Errorf("%w: %s - %s", ErrTokenExchange, e, results["error_description"])
	}

	tok := &Token{
		AccessToken:  results["access_token"],
		RefreshToken: results["refresh_token"],
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: no access_token in response", ErrTokenExchange)
	}

	// Forward everything except the refresh token as raw claims.
	delete(results, "refresh_token")
	tok.RawClaims = results

	return tok, nil
}

// parseTokenBody attempts JSON first and falls back to a query-string body.
// Some deployments of the provider never set a JSON content type and answer
// in application/x-www-form-urlencoded, like early OAuth2 drafts did.
func parseTokenBody(body []byte) (map[string]string, error) {
	var asJSON map[string]any
	if err := json.Unmarshal(body, &asJSON); err == nil {
		out := make(map[string]string, len(asJSON))
		for k, v := range asJSON {
			switch t := v.(type) {
			case string:
				out[k] = t
			case nil:
				// skip
			default:
				out[k] = fmt.Sprint(t)
			}
		}
		return out, nil
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: unparseable token response", ErrTokenExchange)
	}
	out := make(map[string]string, len(values))
	for k := range values {
		out[k] = values.Get(k)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty token response", ErrTokenExchange)
	}
	return out, nil
}

// FetchProfile retrieves and normalizes the user detail for an access token.
// The token travels as an Authorization: Bearer header, never as a query
// parameter.
func (o *OAuth) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", o.profileEndpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("baiteda: profile fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("baiteda: profile fetch: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("baiteda: profile fetch: read body: %w", err)
	}

	return ParseProfile(body)
}
