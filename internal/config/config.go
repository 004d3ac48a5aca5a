package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
		// URL pública del foro, sin slash final. Se usa para armar la
		// redirect_uri del provider y los links de auth/deauth.
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxConns        int    `yaml:"max_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"` // redis | memory
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
		Memory struct {
			DefaultTTL string `yaml:"default_ttl"`
		} `yaml:"memory"`
	} `yaml:"cache"`

	Provider struct {
		Name            string        `yaml:"name"`
		AuthEndpoint    string        `yaml:"auth_endpoint"`
		TokenEndpoint   string        `yaml:"token_endpoint"`
		ProfileEndpoint string        `yaml:"profile_endpoint"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"provider"`

	Auth struct {
		// Secreto HS256 para el state de OAuth. Solo por env en prod.
		StateSecret string        `yaml:"state_secret"`
		StateTTL    time.Duration `yaml:"state_ttl"`

		Session struct {
			Secret     string        `yaml:"secret"`
			CookieName string        `yaml:"cookie_name"`
			Domain     string        `yaml:"domain"`
			SameSite   string        `yaml:"samesite"`
			Secure     bool          `yaml:"secure"`
			TTL        time.Duration `yaml:"ttl"`
		} `yaml:"session"`
	} `yaml:"auth"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	SMTP struct {
		Host      string `yaml:"host"`
		Port      int    `yaml:"port"`
		Username  string `yaml:"username"`
		Password  string `yaml:"password"`
		FromEmail string `yaml:"from_email"`
		TLSMode   string `yaml:"tls_mode"`
	} `yaml:"smtp"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Memory.DefaultTTL == "" {
		c.Cache.Memory.DefaultTTL = "2m"
	}
	if c.Provider.Name == "" {
		c.Provider.Name = "baiteda"
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 10 * time.Second
	}
	if c.Auth.StateTTL == 0 {
		c.Auth.StateTTL = 10 * time.Minute
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "ssobridge_session"
	}
	if c.Auth.Session.TTL == 0 {
		c.Auth.Session.TTL = 720 * time.Hour // 30d
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	c.applyEnvOverrides()
	return &c, nil
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
// Los secretos (state, session, admin key) normalmente llegan solo por env.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("BASE_URL"); ok {
		c.Server.BaseURL = v
	}

	if v, ok := getEnvStr("PG_DSN"); ok {
		c.Storage.DSN = v
	}

	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	if v, ok := getEnvStr("STATE_SECRET"); ok {
		c.Auth.StateSecret = v
	}
	if v, ok := getEnvStr("SESSION_SECRET"); ok {
		c.Auth.Session.Secret = v
	}
	if v, ok := getEnvStr("ADMIN_API_KEY"); ok {
		c.Admin.APIKey = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.FromEmail = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}

	// En prod la cookie de sesión siempre viaja con Secure.
	if c.App.Env == "prod" {
		c.Auth.Session.Secure = true
	}
}

// Validate chequea lo mínimo para arrancar. Las credenciales del provider
// no van acá: viven en el KV de settings y se cargan por request.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("config: server.base_url is required")
	}
	if strings.HasSuffix(c.Server.BaseURL, "/") {
		return fmt.Errorf("config: server.base_url must not end with a slash")
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required")
	}
	if c.Auth.StateSecret == "" {
		return fmt.Errorf("config: STATE_SECRET is required")
	}
	if c.Auth.Session.Secret == "" {
		return fmt.Errorf("config: SESSION_SECRET is required")
	}
	if c.Cache.Kind != "memory" && c.Cache.Kind != "redis" {
		return fmt.Errorf("config: cache.kind must be memory or redis, got %q", c.Cache.Kind)
	}
	return nil
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
