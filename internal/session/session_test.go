package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testCodec() *Codec {
	return NewCodec(Config{
		Secret:     []byte("test-session-secret"),
		CookieName: "ssobridge_session",
		SameSite:   http.SameSiteLaxMode,
		TTL:        time.Hour,
	})
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	c := testCodec()

	tok, err := c.Issue("uid-7")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	uid, err := c.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uid != "uid-7" {
		t.Fatalf("uid = %q, want uid-7", uid)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	c := testCodec()
	for _, raw := range []string{"", "no-un-jwt", "a.b.c"} {
		if _, err := c.Verify(raw); err == nil {
			t.Errorf("Verify(%q): expected error", raw)
		}
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	c := testCodec()
	other := NewCodec(Config{Secret: []byte("otro"), CookieName: "s", TTL: time.Hour})

	tok, _ := c.Issue("uid-7")
	if _, err := other.Verify(tok); err == nil {
		t.Fatal("Verify aceptó un token firmado con otro secreto")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := testCodec()
	tok, _ := c.Issue("uid-7")

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := c.Verify(tok); err != ErrExpiredSession {
		t.Fatalf("err = %v, want ErrExpiredSession", err)
	}
}

func TestCookieAttributes(t *testing.T) {
	c := testCodec()
	rec := httptest.NewRecorder()
	c.SetCookie(rec, "token-value")

	res := rec.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	ck := cookies[0]
	if ck.Name != "ssobridge_session" || ck.Value != "token-value" {
		t.Fatalf("cookie = %s=%s", ck.Name, ck.Value)
	}
	if !ck.HttpOnly {
		t.Error("cookie debe ser HttpOnly")
	}
	if ck.MaxAge != 3600 {
		t.Errorf("MaxAge = %d, want 3600", ck.MaxAge)
	}

	rec = httptest.NewRecorder()
	c.ClearCookie(rec)
	ck = rec.Result().Cookies()[0]
	if ck.MaxAge >= 0 || ck.Value != "" {
		t.Errorf("ClearCookie: MaxAge=%d Value=%q", ck.MaxAge, ck.Value)
	}
}
