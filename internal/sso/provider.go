package sso

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/oauth/baiteda"
)

// Identity is the normalized external identity handed to reconciliation.
// Facts only, no decisions.
type Identity struct {
	Provider    string
	ExternalID  string
	DisplayName string
	Email       string
	Mobile      string
	TenantLabel string
	RawClaims   map[string]string
}

// Provider is the contract every external identity provider implements.
// Implementations return identity facts only and must not perform user
// creation, linking or session management.
type Provider interface {
	// Name returns the provider identifier (e.g. "baiteda").
	Name() string

	// AuthURL returns the provider authorization URL for the given state.
	AuthURL(ctx context.Context, state string) (string, error)

	// Exchange completes the code→token→profile sequence and returns the
	// normalized identity.
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// ProviderFactory builds a Provider bound to the credentials in effect for
// one request. Client id and secret live in the settings store and can
// change at runtime, so providers are never cached across requests.
type ProviderFactory interface {
	// Name returns the provider identifier (e.g. "baiteda").
	Name() string

	// New binds the factory's static endpoints to the given credentials.
	New(settings *repository.Settings) Provider
}

// Registry holds the configured provider factories keyed by name. It is
// built once at process start and passed by reference into the routing
// layer; nothing mutates it afterwards.
type Registry struct {
	providers map[string]ProviderFactory
}

// NewRegistry registers the given factories by name.
// Provider names must be unique.
func NewRegistry(list ...ProviderFactory) *Registry {
	m := make(map[string]ProviderFactory, len(list))
	for _, p := range list {
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

// Get returns the factory by name or an error if not registered.
func (r *Registry) Get(name string) (ProviderFactory, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("sso: unknown provider: %s", name)
	}
	return p, nil
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	return out
}

// baitedaFactory carries the static part of the baiteda configuration
// (endpoints, redirect URL, timeout) and stamps per-request credentials
// onto it.
type baitedaFactory struct {
	base baiteda.Config
}

// NewBaitedaFactory builds the baiteda provider factory. cfg.ClientID and
// cfg.ClientSecret are ignored; credentials come from settings at bind
// time.
func NewBaitedaFactory(cfg baiteda.Config) ProviderFactory {
	return &baitedaFactory{base: cfg}
}

func (f *baitedaFactory) Name() string { return "baiteda" }

func (f *baitedaFactory) New(settings *repository.Settings) Provider {
	cfg := f.base
	cfg.ClientID = settings.ClientID
	cfg.ClientSecret = settings.ClientSecret
	return &baitedaProvider{client: baiteda.New(cfg)}
}

// baitedaProvider adapts the baiteda OAuth client to the Provider contract.
// Composition over the generic client: the provider-specific token request
// lives in the baiteda package, not in a subclass override.
type baitedaProvider struct {
	client *baiteda.OAuth
}

func (p *baitedaProvider) Name() string { return p.client.Name() }

func (p *baitedaProvider) AuthURL(ctx context.Context, state string) (string, error) {
	return p.client.AuthURL(ctx, state)
}

func (p *baitedaProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := p.client.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	profile, err := p.client.FetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return nil, err
	}

	return &Identity{
		Provider:    p.client.Name(),
		ExternalID:  profile.ExternalID,
		DisplayName: profile.DisplayName,
		Email:       profile.Email,
		Mobile:      profile.Mobile,
		TenantLabel: profile.TenantLabel,
		RawClaims:   tok.RawClaims,
	}, nil
}
