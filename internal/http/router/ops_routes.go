package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dropDatabas3/ssobridge/internal/cache"
	mw "github.com/dropDatabas3/ssobridge/internal/http/middlewares"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OpsRouterDeps contiene las dependencias para healthz y metrics.
type OpsRouterDeps struct {
	Pool           *pgxpool.Pool
	KV             cache.Client
	MetricsHandler http.Handler
}

// RegisterOpsRoutes registra los endpoints operacionales.
func RegisterOpsRoutes(mux *http.ServeMux, deps OpsRouterDeps) {
	mux.Handle("GET /healthz", mw.Chain(healthzHandler(deps), mw.WithRecover(), mw.WithRequestID()))

	if deps.MetricsHandler != nil {
		mux.Handle("GET /metrics", deps.MetricsHandler)
	}
}

// healthzHandler chequea las dependencias con un timeout corto.
func healthzHandler(deps OpsRouterDeps) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := map[string]string{}

		if deps.Pool != nil {
			if err := deps.Pool.Ping(ctx); err != nil {
				checks["postgres"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["postgres"] = "ok"
			}
		}
		if deps.KV != nil {
			if err := deps.KV.Ping(ctx); err != nil {
				checks["kv"] = err.Error()
				status = http.StatusServiceUnavailable
			} else {
				checks["kv"] = "ok"
			}
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": http.StatusText(status),
			"checks": checks,
		})
	})
}
