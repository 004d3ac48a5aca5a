package baiteda

import (
	"errors"
	"testing"
)

func TestParseProfile_Basic(t *testing.T) {
	raw := []byte(`{"data":{"user_base_info":{"user_id":"42"},"tenant_list":[{"tenant_name":"Acme"}]}}`)

	p, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	if p.ExternalID != "42" {
		t.Fatalf("Expected external id %q, got %q", "42", p.ExternalID)
	}
	if p.TenantLabel != "Acme" {
		t.Fatalf("Expected tenant label %q, got %q", "Acme", p.TenantLabel)
	}
	if p.Email != "@Acme" {
		t.Fatalf("Expected synthesized email %q, got %q", "@Acme", p.Email)
	}
	if p.DisplayName == "" {
		t.Fatal("Expected a non-empty generated display name")
	}
}

func TestParseProfile_MissingUserID(t *testing.T) {
	cases := []string{
		`{"data":{"user_base_info":{}}}`,
		`{"data":{}}`,
		`{}`,
		`{"data":{"user_base_info":{"user_id":"   "}}}`,
	}
	for _, raw := range cases {
		if _, err := ParseProfile([]byte(raw)); !errors.Is(err, ErrMalformedProfile) {
			t.Fatalf("payload %s: expected ErrMalformedProfile, got %v", raw, err)
		}
	}
}

func TestParseProfile_InvalidJSON(t *testing.T) {
	if _, err := ParseProfile([]byte(`not json at all`)); !errors.Is(err, ErrMalformedProfile) {
		t.Fatalf("Expected ErrMalformedProfile, got %v", err)
	}
}

func TestParseProfile_NoTenants(t *testing.T) {
	raw := []byte(`{"data":{"user_base_info":{"user_id":"u-7"},"tenant_list":[]}}`)

	p, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	if p.TenantLabel != "" {
		t.Fatalf("Expected empty tenant label, got %q", p.TenantLabel)
	}
	// Sin tenant no se sintetiza email; la capa de reconciliación pone el placeholder.
	if p.Email != "" {
		t.Fatalf("Expected empty email, got %q", p.Email)
	}
}

func TestParseProfile_MultipleTenants(t *testing.T) {
	raw := []byte(`{"data":{"user_base_info":{"user_id":"u-8"},"tenant_list":[{"tenant_name":"Acme"},{"tenant_name":"Globex"}]}}`)

	p, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	want := "Acme，Globex"
	if p.TenantLabel != want {
		t.Fatalf("Expected tenant label %q, got %q", want, p.TenantLabel)
	}
	if p.Email != "@"+want {
		t.Fatalf("Expected email %q, got %q", "@"+want, p.Email)
	}
}

func TestParseProfile_MobileCopied(t *testing.T) {
	raw := []byte(`{"data":{"user_base_info":{"user_id":"u-9"},"mobile":"+86 13800000000"}}`)

	p, err := ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	if p.Mobile != "+86 13800000000" {
		t.Fatalf("Expected mobile copied verbatim, got %q", p.Mobile)
	}
}

func TestRandomNickname_NonEmpty(t *testing.T) {
	for i := 0; i < 50; i++ {
		if randomNickname() == "" {
			t.Fatal("randomNickname returned empty string")
		}
	}
}
