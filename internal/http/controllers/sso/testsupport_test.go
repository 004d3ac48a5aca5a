package sso_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/ssobridge/internal/cache"
	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	ctrl "github.com/dropDatabas3/ssobridge/internal/http/controllers/sso"
	"github.com/dropDatabas3/ssobridge/internal/http/router"
	ssosvc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/oauth/baiteda"
	"github.com/dropDatabas3/ssobridge/internal/session"
	ssocore "github.com/dropDatabas3/ssobridge/internal/sso"
	"github.com/dropDatabas3/ssobridge/internal/store/kv"
)

const testBaseURL = "https://forum.test"

// memUsers es un repository.UserRepository en memoria para los tests HTTP.
type memUsers struct {
	mu    sync.Mutex
	seq   int
	users map[string]*repository.User

	confirmEmailErr error
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*repository.User{}}
}

func (m *memUsers) GetByID(_ context.Context, uid string) (*repository.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUIDByEmail(_ context.Context, email string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u.ID, nil
		}
	}
	return "", repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, in repository.CreateUserInput) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	uid := fmt.Sprintf("uid-%d", m.seq)
	m.users[uid] = &repository.User{ID: uid, Username: in.Username, Email: in.Email}
	return uid, nil
}

func (m *memUsers) update(uid string, apply func(*repository.User)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return repository.ErrNotFound
	}
	apply(u)
	return nil
}

func (m *memUsers) SetEmail(_ context.Context, uid, email string) error {
	return m.update(uid, func(u *repository.User) { u.Email = email })
}
func (m *memUsers) SetFullname(_ context.Context, uid, fullname string) error {
	return m.update(uid, func(u *repository.User) { u.Fullname = fullname })
}
func (m *memUsers) SetExternalID(_ context.Context, uid, externalID string) error {
	return m.update(uid, func(u *repository.User) { u.ExternalID = externalID })
}
func (m *memUsers) ClearExternalID(_ context.Context, uid string) error {
	return m.update(uid, func(u *repository.User) { u.ExternalID = "" })
}
func (m *memUsers) ConfirmEmail(_ context.Context, uid string) error {
	if m.confirmEmailErr != nil {
		return m.confirmEmailErr
	}
	return m.update(uid, func(u *repository.User) { u.EmailVerified = true })
}

// memSettings evita depender de SECRETBOX_MASTER_KEY en los tests HTTP.
type memSettings struct {
	mu sync.Mutex
	s  *repository.Settings
}

func (m *memSettings) Load(context.Context) (*repository.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		return nil, repository.ErrNotFound
	}
	cp := *m.s
	return &cp, nil
}

func (m *memSettings) Save(_ context.Context, s *repository.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.s = &cp
	return nil
}

// fakeProvider es un user center de mentira: token endpoint + user detail.
func fakeProvider(t *testing.T, externalID string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") == "" || r.PostForm.Get("client_secret") == "" {
			http.Error(w, "missing credentials", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-" + externalID,
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/user/detail", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-"+externalID {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"user_base_info": map[string]any{"user_id": externalID},
				"mobile":         "555-0100",
				"tenant_list":    []map[string]any{{"tenant_name": "Acme"}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	mux      *http.ServeMux
	users    *memUsers
	assocs   repository.AssociationRepository
	settings repository.SettingsRepository
	sessions *session.Codec
	services ssosvc.Services
	provider *httptest.Server
}

// newTestEnv arma el stack completo contra un provider falso.
func newTestEnv(t *testing.T, externalID string) *testEnv {
	t.Helper()

	provider := fakeProvider(t, externalID)
	users := newMemUsers()
	mem := cache.NewMemory("")

	settings := &memSettings{}
	if err := settings.Save(context.Background(), &repository.Settings{
		ClientID:     "cid",
		ClientSecret: "secret",
	}); err != nil {
		t.Fatalf("seed settings: %v", err)
	}

	assocs := kv.NewAssociations(mem, "baiteda")

	registry := ssocore.NewRegistry(ssocore.NewBaitedaFactory(baiteda.Config{
		RedirectURL:     testBaseURL + "/auth/baiteda/callback",
		AuthEndpoint:    provider.URL + "/oauth/authorize",
		TokenEndpoint:   provider.URL + "/oauth/token",
		ProfileEndpoint: provider.URL + "/user/detail",
		Timeout:         5 * time.Second,
	}))

	sessions := session.NewCodec(session.Config{
		Secret:     randomSecret(t),
		CookieName: "ssobridge_session",
		SameSite:   http.SameSiteLaxMode,
		TTL:        time.Hour,
	})

	reconciler := ssocore.NewReconciler(users, assocs, nil)
	lifecycle := ssocore.NewLifecycle(users, assocs, "baiteda", testBaseURL)

	services := ssosvc.NewServices(ssosvc.Deps{
		Registry:    registry,
		Settings:    settings,
		Reconciler:  reconciler,
		Lifecycle:   lifecycle,
		Sessions:    sessions,
		Provider:    "baiteda",
		StateSecret: randomSecret(t),
		StateTTL:    10 * time.Minute,
	})

	mux := http.NewServeMux()
	router.RegisterSSORoutes(mux, router.SSORouterDeps{
		Controllers: ctrl.NewControllers(services, sessions, testBaseURL),
		Sessions:    sessions,
	})

	return &testEnv{
		mux:      mux,
		users:    users,
		assocs:   assocs,
		settings: settings,
		sessions: sessions,
		services: services,
		provider: provider,
	}
}

func randomSecret(t *testing.T) []byte {
	t.Helper()
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand: %v", err)
	}
	return []byte(base64.StdEncoding.EncodeToString(b))
}

