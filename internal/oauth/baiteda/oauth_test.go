package baiteda

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newTestClient(tokenURL, profileURL string) *OAuth {
	return New(Config{
		ClientID:        "client-1",
		ClientSecret:    "shhh",
		RedirectURL:     "https://forum.example.com/auth/baiteda/callback",
		TokenEndpoint:   tokenURL,
		ProfileEndpoint: profileURL,
	})
}

func TestExchangeCode_JSONResponse(t *testing.T) {
	var gotForm url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"bearer","expires_in":7200}`))
	}))
	defer srv.Close()

	o := newTestClient(srv.URL, "")
	tok, err := o.ExchangeCode(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("ExchangeCode failed: %v", err)
	}

	// Credenciales y scope van en el body, no en headers.
	if gotForm.Get("client_id") != "client-1" || gotForm.Get("client_secret") != "shhh" {
		t.Fatalf("Expected client credentials in form body, got %v", gotForm)
	}
	if gotForm.Get("scope") != "all" {
		t.Fatalf("Expected scope=all in form body, got %q", gotForm.Get("scope"))
	}
	if gotForm.Get("grant_type") != "authorization_code" || gotForm.Get("code") != "the-code" {
		t.Fatalf("Unexpected grant fields: %v", gotForm)
	}

	if tok.AccessToken != "at-1" {
		t.Fatalf("Expected access token at-1, got %q", tok.AccessToken)
	}
	if tok.RefreshToken != "rt-1" {
		t.Fatalf("Expected refresh token rt-1, got %q", tok.RefreshToken)
	}
	if _, ok := tok.RawClaims["refresh_token"]; ok {
		t.Fatal("refresh_token must be stripped from raw claims")
	}
	if tok.RawClaims["token_type"] != "bearer" {
		t.Fatalf("Expected token_type in raw claims, got %v", tok.RawClaims)
	}
	if tok.RawClaims["expires_in"] != "7200" {
		t.Fatalf("Expected stringified expires_in, got %q", tok.RawClaims["expires_in"])
	}
}

func TestExchangeCode_QueryStringFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Sin content-type JSON y con body application/x-www-form-urlencoded,
		// como los providers que siguen drafts viejos de OAuth2.
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`access_token=at-2&refresh_token=rt-2&scope=all`))
	}))
	defer srv.Close()

	o := newTestClient(srv.URL, "")
	tok, err := o.ExchangeCode(context.Background(), "code")
	if err != nil {
		t.Fatalf("ExchangeCode failed on query-string body: %v", err)
	}
	if tok.AccessToken != "at-2" || tok.RefreshToken != "rt-2" {
		t.Fatalf("Unexpected token: %+v", tok)
	}
	if _, ok := tok.RawClaims["refresh_token"]; ok {
		t.Fatal("refresh_token must be stripped from raw claims")
	}
}

func TestExchangeCode_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"invalid_grant","error_description":"code expired"}`))
	}))
	defer srv.Close()

	o := newTestClient(srv.URL, "")
	if _, err := o.ExchangeCode(context.Background(), "stale"); !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("Expected ErrTokenExchange, got %v", err)
	}
}

func TestExchangeCode_NoAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not a token</html>`))
	}))
	defer srv.Close()

	o := newTestClient(srv.URL, "")
	if _, err := o.ExchangeCode(context.Background(), "code"); !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("Expected ErrTokenExchange, got %v", err)
	}
}

func TestRefresh_UsesRefreshTokenParam(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if r.PostForm.Get("grant_type") != "refresh_token" {
			t.Errorf("Expected grant_type=refresh_token, got %q", r.PostForm.Get("grant_type"))
		}
		if r.PostForm.Get("refresh_token") != "rt-old" {
			t.Errorf("Expected refresh_token=rt-old, got %q", r.PostForm.Get("refresh_token"))
		}
		if r.PostForm.Get("code") != "" {
			t.Errorf("code param must not be sent on refresh, got %q", r.PostForm.Get("code"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at-new","refresh_token":"rt-new"}`))
	}))
	defer srv.Close()

	o := newTestClient(srv.URL, "")
	tok, err := o.Refresh(context.Background(), "rt-old")
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if tok.AccessToken != "at-new" {
		t.Fatalf("Expected new access token, got %q", tok.AccessToken)
	}
}

func TestFetchProfile_BearerHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Expected bearer auth header, got %q", got)
		}
		if r.URL.Query().Get("access_token") != "" {
			t.Error("access token must never travel as a query param")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"user_base_info":{"user_id":"777"},"tenant_list":[{"tenant_name":"Initech"}]}}`))
	}))
	defer srv.Close()

	o := newTestClient("", srv.URL)
	p, err := o.FetchProfile(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if p.ExternalID != "777" {
		t.Fatalf("Expected external id 777, got %q", p.ExternalID)
	}
	if p.Email != "@Initech" {
		t.Fatalf("Expected email @Initech, got %q", p.Email)
	}
}

func TestFetchProfile_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	o := newTestClient("", srv.URL)
	if _, err := o.FetchProfile(context.Background(), "bad"); err == nil {
		t.Fatal("Expected error on non-200 profile response")
	}
}

func TestAuthURL(t *testing.T) {
	o := New(Config{
		ClientID:     "client-1",
		ClientSecret: "shhh",
		RedirectURL:  "https://forum.example.com/auth/baiteda/callback",
		AuthEndpoint: "https://sso.example.com/authorize",
	})

	raw, err := o.AuthURL(context.Background(), "state-xyz")
	if err != nil {
		t.Fatalf("AuthURL failed: %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("AuthURL produced invalid URL: %v", err)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" || q.Get("state") != "state-xyz" {
		t.Fatalf("Unexpected query: %v", q)
	}
	if q.Get("scope") != "all" {
		t.Fatalf("Expected scope=all, got %q", q.Get("scope"))
	}
	if !strings.HasPrefix(raw, "https://sso.example.com/authorize?") {
		t.Fatalf("Unexpected URL base: %s", raw)
	}
}
