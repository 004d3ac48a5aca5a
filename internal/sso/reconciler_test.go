package sso

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
)

func testIdentity() *Identity {
	return &Identity{
		Provider:    "baiteda",
		ExternalID:  "ext-42",
		DisplayName: "brisk-otter-7",
		Email:       "ana@acme.test",
	}
}

func openSettings() *repository.Settings {
	return &repository.Settings{ClientID: "cid", ClientSecret: "sec"}
}

func TestLoginCreatesAccountAndAttaches(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	r := NewReconciler(users, assocs, nil)

	uid, outcome, err := r.Login(context.Background(), openSettings(), testIdentity())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if outcome != OutcomeCreated {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeCreated)
	}

	u, err := users.GetByID(context.Background(), uid)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if u.ExternalID != "ext-42" {
		t.Errorf("ExternalID = %q, want ext-42", u.ExternalID)
	}
	if u.Email != "ana@acme.test" {
		t.Errorf("Email = %q", u.Email)
	}
	if !u.EmailVerified {
		t.Error("email should be confirmed when verification is not required")
	}
	if u.Fullname != "brisk-otter-7" {
		t.Errorf("Fullname = %q, want backfilled display name", u.Fullname)
	}
	if got, _ := assocs.GetUID(context.Background(), "ext-42"); got != uid {
		t.Errorf("association uid = %q, want %q", got, uid)
	}
}

func TestLoginReloginUpdatesEmailOnly(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	users.addUser(&repository.User{ID: "uid-9", Email: "old@acme.test", ExternalID: "ext-42", Fullname: "Ana"})
	assocs.m["ext-42"] = "uid-9"
	r := NewReconciler(users, assocs, nil)

	id := testIdentity()
	id.Email = "new@acme.test"

	// El toggle de registro apagado no afecta un re-login.
	settings := openSettings()
	settings.DisableRegistration = repository.ToggleOn

	uid, outcome, err := r.Login(context.Background(), settings, id)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if uid != "uid-9" {
		t.Fatalf("uid = %q, want uid-9", uid)
	}
	if outcome != OutcomeAssociated {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeAssociated)
	}
	if users.count() != 1 {
		t.Errorf("user count = %d, want 1", users.count())
	}

	u, _ := users.GetByID(context.Background(), "uid-9")
	if u.Email != "new@acme.test" {
		t.Errorf("Email = %q, want new@acme.test", u.Email)
	}
	if u.Fullname != "Ana" {
		t.Errorf("Fullname = %q, re-login must not touch fullname", u.Fullname)
	}
}

func TestLoginMergeBypassesRegistrationToggle(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	users.addUser(&repository.User{ID: "uid-3", Email: "ana@acme.test", Fullname: "Ana Pérez"})
	r := NewReconciler(users, assocs, nil)

	settings := openSettings()
	settings.DisableRegistration = repository.ToggleOn

	uid, outcome, err := r.Login(context.Background(), settings, testIdentity())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if uid != "uid-3" {
		t.Fatalf("uid = %q, want uid-3", uid)
	}
	if outcome != OutcomeMerged {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeMerged)
	}

	u, _ := users.GetByID(context.Background(), "uid-3")
	if u.ExternalID != "ext-42" {
		t.Errorf("ExternalID = %q, want ext-42", u.ExternalID)
	}
	if u.Fullname != "Ana Pérez" {
		t.Errorf("Fullname = %q, existing fullname must be preserved", u.Fullname)
	}
}

func TestLoginRegistrationDisabledLeavesStoreUntouched(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	r := NewReconciler(users, assocs, nil)

	settings := openSettings()
	settings.DisableRegistration = repository.ToggleOn

	_, _, err := r.Login(context.Background(), settings, testIdentity())
	if !errors.Is(err, ErrRegistrationDisabled) {
		t.Fatalf("err = %v, want ErrRegistrationDisabled", err)
	}
	if users.count() != 0 {
		t.Errorf("user count = %d, want 0", users.count())
	}
	if assocs.count() != 0 {
		t.Errorf("association count = %d, want 0", assocs.count())
	}
}

func TestLoginMissingEmailUsesPlaceholder(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	r := NewReconciler(users, assocs, nil)

	id := testIdentity()
	id.Email = ""

	uid, _, err := r.Login(context.Background(), openSettings(), id)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	u, _ := users.GetByID(context.Background(), uid)
	want := "brisk-otter-7@" + noreplyDomain
	if u.Email != want {
		t.Errorf("Email = %q, want %q", u.Email, want)
	}
}

func TestLoginVerificationRequiredDispatchesMail(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	mailer := &fakeMailer{}
	r := NewReconciler(users, assocs, mailer)

	settings := openSettings()
	settings.NeedToVerifyEmail = repository.ToggleOn

	uid, _, err := r.Login(context.Background(), settings, testIdentity())
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	u, _ := users.GetByID(context.Background(), uid)
	if u.EmailVerified {
		t.Error("email must stay unconfirmed when verification is required")
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != "ana@acme.test" {
		t.Errorf("mailer.sent = %v, want one message to ana@acme.test", mailer.sent)
	}
}

func TestLoginVerificationMailFailureDoesNotBlock(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	mailer := &fakeMailer{err: errors.New("smtp down")}
	r := NewReconciler(users, assocs, mailer)

	settings := openSettings()
	settings.NeedToVerifyEmail = repository.ToggleOn

	if _, _, err := r.Login(context.Background(), settings, testIdentity()); err != nil {
		t.Fatalf("Login: %v, mail failure must not surface", err)
	}
}

func TestLoginAttachFailureStillReturnsUID(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	users.failOn["ConfirmEmail"] = errors.New("db timeout")
	r := NewReconciler(users, assocs, nil)

	uid, _, err := r.Login(context.Background(), openSettings(), testIdentity())
	if err == nil {
		t.Fatal("expected attach error")
	}
	if uid == "" {
		t.Fatal("uid must be returned even when attach fails")
	}
	// Los sub-pasos previos quedan comprometidos: no hay rollback.
	if got, _ := assocs.GetUID(context.Background(), "ext-42"); got != uid {
		t.Errorf("association uid = %q, want %q", got, uid)
	}
	u, _ := users.GetByID(context.Background(), uid)
	if u.ExternalID != "ext-42" {
		t.Errorf("ExternalID = %q, want ext-42", u.ExternalID)
	}
}

func TestLoginSecondLoginDifferentEmail(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	r := NewReconciler(users, assocs, nil)

	uid1, _, err := r.Login(context.Background(), openSettings(), testIdentity())
	if err != nil {
		t.Fatalf("first Login: %v", err)
	}

	id := testIdentity()
	id.Email = "ana@globex.test"
	uid2, outcome, err := r.Login(context.Background(), openSettings(), id)
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if uid2 != uid1 {
		t.Fatalf("uid changed across logins: %q vs %q", uid1, uid2)
	}
	if outcome != OutcomeAssociated {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeAssociated)
	}
	if users.count() != 1 {
		t.Errorf("user count = %d, want 1", users.count())
	}
	u, _ := users.GetByID(context.Background(), uid1)
	if u.Email != "ana@globex.test" {
		t.Errorf("Email = %q, want ana@globex.test", u.Email)
	}
}

func TestLoginConcurrentFirstLoginsCreateOneAccount(t *testing.T) {
	users := newFakeUsers()
	assocs := newFakeAssocs()
	r := NewReconciler(users, assocs, nil)

	const n = 16
	uids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uid, _, err := r.Login(context.Background(), openSettings(), testIdentity())
			if err != nil {
				t.Errorf("Login: %v", err)
				return
			}
			uids[i] = uid
		}(i)
	}
	wg.Wait()

	// single-flight + la asociación escrita por el primero garantizan una
	// sola cuenta, aunque los goroutines caigan en rondas distintas.
	if users.count() != 1 {
		t.Fatalf("user count = %d, want 1", users.count())
	}
	for i := 1; i < n; i++ {
		if uids[i] != uids[0] {
			t.Fatalf("uid mismatch: %q vs %q", uids[i], uids[0])
		}
	}
}

func TestLoginRejectsEmptyExternalID(t *testing.T) {
	r := NewReconciler(newFakeUsers(), newFakeAssocs(), nil)
	if _, _, err := r.Login(context.Background(), openSettings(), &Identity{Provider: "baiteda"}); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if _, _, err := r.Login(context.Background(), openSettings(), nil); !errors.Is(err, repository.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}
