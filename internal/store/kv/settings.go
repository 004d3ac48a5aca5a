package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dropDatabas3/ssobridge/internal/cache"
	"github.com/dropDatabas3/ssobridge/internal/domain/repository"
	"github.com/dropDatabas3/ssobridge/internal/security/secretbox"
)

// settingsRepo implementa repository.SettingsRepository sobre el KV.
// El client_secret se guarda cifrado con secretbox; el resto en claro.
type settingsRepo struct {
	kv       cache.Client
	provider string
}

// NewSettings crea el repositorio de settings para un provider.
func NewSettings(kv cache.Client, provider string) repository.SettingsRepository {
	return &settingsRepo{kv: kv, provider: provider}
}

func (r *settingsRepo) key() string {
	return "settings:sso:" + r.provider
}

func (r *settingsRepo) Load(ctx context.Context) (*repository.Settings, error) {
	raw, err := r.kv.Get(ctx, r.key())
	if cache.IsNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kv: load settings: %w", err)
	}

	var s repository.Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("kv: settings corruptos: %w", err)
	}

	if s.ClientSecret != "" {
		plain, err := secretbox.Decrypt(s.ClientSecret)
		switch {
		case err == nil:
			s.ClientSecret = plain
		case errors.Is(err, secretbox.ErrCipherFormat):
			// Valor legacy guardado en claro: se acepta tal cual.
		default:
			return nil, fmt.Errorf("kv: decrypt client_secret: %w", err)
		}
	}

	return &s, nil
}

func (r *settingsRepo) Save(ctx context.Context, s *repository.Settings) error {
	if s == nil {
		return repository.ErrInvalidInput
	}

	// Copia para no mutar el struct del caller al cifrar.
	out := *s
	if out.ClientSecret != "" {
		sealed, err := secretbox.Encrypt(out.ClientSecret)
		if err != nil {
			return fmt.Errorf("kv: encrypt client_secret: %w", err)
		}
		out.ClientSecret = sealed
	}

	raw, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("kv: marshal settings: %w", err)
	}
	if err := r.kv.Set(ctx, r.key(), string(raw), 0); err != nil {
		return fmt.Errorf("kv: save settings: %w", err)
	}
	return nil
}
