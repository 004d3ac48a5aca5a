package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once    sync.Once
	initErr error

	// HTTP metrics
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	// SSO domain metrics
	ssoLoginsTotal     *prometheus.CounterVec
	ssoUnlinksTotal    *prometheus.CounterVec
	oauthRequestsTotal *prometheus.CounterVec
)

// Register inicializa las métricas y devuelve el handler para /metrics.
// Idempotente: llamadas posteriores reusan los collectors ya registrados.
func Register(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	once.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		ssoLoginsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_logins_total",
			Help: "Logins SSO completados por resultado de reconciliación",
		}, []string{"provider", "outcome"}) // outcome: associated|merged|created|denied|error

		ssoUnlinksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_unlinks_total",
			Help: "Desvinculaciones de cuenta por resultado",
		}, []string{"provider", "result"}) // result: ok|not_linked|error

		oauthRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sso_oauth_requests_total",
			Help: "Llamadas al provider OAuth por operación y resultado",
		}, []string{"provider", "op", "result"})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal,
			httpRequestDuration,
			httpInflight,
			ssoLoginsTotal,
			ssoUnlinksTotal,
			oauthRequestsTotal,
		} {
			if err := registerCollector(registry, c); err != nil {
				initErr = err
				return
			}
		}
	})
	if initErr != nil {
		return nil, initErr
	}

	// Gatherer global por compatibilidad: los collectors viven ahí.
	return promhttp.Handler(), nil
}

// ObserveLogin cuenta un intento de login SSO resuelto.
func ObserveLogin(provider, outcome string) {
	if ssoLoginsTotal == nil {
		return
	}
	ssoLoginsTotal.WithLabelValues(provider, outcome).Inc()
}

// ObserveUnlink cuenta una desvinculación.
func ObserveUnlink(provider, result string) {
	if ssoUnlinksTotal == nil {
		return
	}
	ssoUnlinksTotal.WithLabelValues(provider, result).Inc()
}

// ObserveOAuth cuenta una llamada saliente al provider (exchange, profile).
func ObserveOAuth(provider, op, result string) {
	if oauthRequestsTotal == nil {
		return
	}
	oauthRequestsTotal.WithLabelValues(provider, op, result).Inc()
}

// WithHTTP instrumenta requests HTTP (contadores, latencia, inflight).
func WithHTTP(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}

		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &statusRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// normalizePath colapsa los segmentos variables para acotar cardinalidad.
func normalizePath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 0 {
		return "/"
	}
	switch segments[0] {
	case "auth", "deauth":
		if len(segments) >= 2 {
			segments[1] = ":provider"
		}
	}
	return "/" + strings.Join(segments, "/")
}

func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
