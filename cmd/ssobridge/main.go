package main

import (
	"context"
	"flag"
	"log"
	nethttp "net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/ssobridge/internal/cache"
	"github.com/dropDatabas3/ssobridge/internal/config"
	"github.com/dropDatabas3/ssobridge/internal/email"
	httpserver "github.com/dropDatabas3/ssobridge/internal/http"
	admctrl "github.com/dropDatabas3/ssobridge/internal/http/controllers/admin"
	ssoctrl "github.com/dropDatabas3/ssobridge/internal/http/controllers/sso"
	"github.com/dropDatabas3/ssobridge/internal/http/router"
	ssosvc "github.com/dropDatabas3/ssobridge/internal/http/services/sso"
	"github.com/dropDatabas3/ssobridge/internal/metrics"
	"github.com/dropDatabas3/ssobridge/internal/oauth/baiteda"
	"github.com/dropDatabas3/ssobridge/internal/observability/logger"
	"github.com/dropDatabas3/ssobridge/internal/session"
	"github.com/dropDatabas3/ssobridge/internal/sso"
	"github.com/dropDatabas3/ssobridge/internal/store/kv"
	"github.com/dropDatabas3/ssobridge/internal/store/pg"
)

func fileExists(p string) bool {
	if p == "" {
		return false
	}
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

func sameSite(v string) nethttp.SameSite {
	switch v {
	case "strict":
		return nethttp.SameSiteStrictMode
	case "none":
		return nethttp.SameSiteNoneMode
	default:
		return nethttp.SameSiteLaxMode
	}
}

func main() {
	var (
		flagConfigPath = flag.String("config", "", "ruta a config.yaml (fallback: $CONFIG_PATH o configs/config.yaml)")
		flagEnvFile    = flag.String("env-file", ".env", "ruta a .env (si existe, se carga)")
	)
	flag.Parse()

	if *flagEnvFile != "" && fileExists(*flagEnvFile) {
		if err := godotenv.Load(*flagEnvFile); err == nil {
			log.Printf("dotenv: cargado %s", *flagEnvFile)
		}
	}

	cfgPath := *flagConfigPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_PATH")
	}
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "ssobridge",
	})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// --- Storage ---
	pool, err := pg.NewPool(ctx, cfg.Storage.DSN)
	if err != nil {
		logger.L().Fatal("postgres", logger.Err(err))
	}
	defer pool.Close()
	users := pg.NewUsers(pool)

	kvClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Kind,
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		logger.L().Fatal("cache", logger.Err(err))
	}
	defer func() { _ = kvClient.Close() }()

	assocs := kv.NewAssociations(kvClient, cfg.Provider.Name)
	settings := kv.NewSettings(kvClient, cfg.Provider.Name)

	// --- Provider registry (inmutable después de acá) ---
	registry := sso.NewRegistry(sso.NewBaitedaFactory(baiteda.Config{
		RedirectURL:     cfg.Server.BaseURL + "/auth/" + cfg.Provider.Name + "/callback",
		AuthEndpoint:    cfg.Provider.AuthEndpoint,
		TokenEndpoint:   cfg.Provider.TokenEndpoint,
		ProfileEndpoint: cfg.Provider.ProfileEndpoint,
		Timeout:         cfg.Provider.Timeout,
	}))

	// --- Verification mailer (opcional: sin SMTP queda deshabilitado) ---
	var mailer sso.VerificationMailer
	if cfg.SMTP.Host != "" {
		sender := email.FromConfig(email.SMTPConfig{
			Host:      cfg.SMTP.Host,
			Port:      cfg.SMTP.Port,
			Username:  cfg.SMTP.Username,
			Password:  cfg.SMTP.Password,
			FromEmail: cfg.SMTP.FromEmail,
			TLSMode:   cfg.SMTP.TLSMode,
		})
		mailer, err = email.NewVerifier(sender, cfg.Server.BaseURL)
		if err != nil {
			logger.L().Fatal("email", logger.Err(err))
		}
	}

	reconciler := sso.NewReconciler(users, assocs, mailer)
	lifecycle := sso.NewLifecycle(users, assocs, cfg.Provider.Name, cfg.Server.BaseURL)

	sessions := session.NewCodec(session.Config{
		Secret:     []byte(cfg.Auth.Session.Secret),
		CookieName: cfg.Auth.Session.CookieName,
		Domain:     cfg.Auth.Session.Domain,
		SameSite:   sameSite(cfg.Auth.Session.SameSite),
		Secure:     cfg.Auth.Session.Secure,
		TTL:        cfg.Auth.Session.TTL,
	})

	services := ssosvc.NewServices(ssosvc.Deps{
		Registry:    registry,
		Settings:    settings,
		Reconciler:  reconciler,
		Lifecycle:   lifecycle,
		Sessions:    sessions,
		Provider:    cfg.Provider.Name,
		StateSecret: []byte(cfg.Auth.StateSecret),
		StateTTL:    cfg.Auth.StateTTL,
	})

	// --- Metrics ---
	metricsHandler, err := metrics.Register(nil)
	if err != nil {
		logger.L().Fatal("metrics", logger.Err(err))
	}

	// --- Routes ---
	mux := nethttp.NewServeMux()

	router.RegisterSSORoutes(mux, router.SSORouterDeps{
		Controllers: ssoctrl.NewControllers(services, sessions, cfg.Server.BaseURL),
		Sessions:    sessions,
	})
	router.RegisterAdminRoutes(mux, router.AdminRouterDeps{
		Settings:     admctrl.NewSettingsController(settings),
		Associations: admctrl.NewAssociationsController(lifecycle, users),
		APIKey:       cfg.Admin.APIKey,
	})
	router.RegisterOpsRoutes(mux, router.OpsRouterDeps{
		Pool:           pool,
		KV:             kvClient,
		MetricsHandler: metricsHandler,
	})

	logger.L().Info("ssobridge up",
		logger.String("addr", cfg.Server.Addr),
		logger.String("base_url", cfg.Server.BaseURL),
		logger.Provider(cfg.Provider.Name),
		logger.String("cache", cfg.Cache.Kind),
	)

	if err := httpserver.Start(cfg.Server.Addr, mux); err != nil {
		logger.L().Fatal("http", logger.Err(err))
	}
}
