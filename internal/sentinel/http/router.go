// Package http wires the engine's services to their HTTP surface. Handlers
// stay thin: decode, call a service, map errors to status codes.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/httpx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     httpx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store          store.Store
	AuthService    *service.AuthService
	MetricsService *service.SecurityMetricsService
	Latency        *telemetry.LatencyTracker
	PromRegistry   *prometheus.Registry
}

func NewRouter(
	verifier httpx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	corsOrigins []string,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SecurityHeaders(),
		httpx.CORS(corsOrigins),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMetrics()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	r.Mux.Handle("POST /v1/auth/login", &LoginHandler{AuthService: r.AuthService})
	r.Mux.Handle("POST /v1/auth/refresh", &RefreshHandler{AuthService: r.AuthService})

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(&LogoutHandler{AuthService: r.AuthService},
			httpx.AuthnMiddleware(r.verifier),
		),
	)
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(&MeHandler{AuthService: r.AuthService},
			httpx.AuthnMiddleware(r.verifier),
		),
	)
}

func (r *Router) registerMetrics() {
	r.Mux.Handle("GET /v1/metrics/latency", &LatencyHandler{Tracker: r.Latency})
	r.Mux.Handle("GET /v1/metrics/security", &SecuritySummaryHandler{MetricsService: r.MetricsService})
	r.Mux.Handle("POST /v1/metrics/security/threat", &ThreatHandler{MetricsService: r.MetricsService})

	// Reset wipes durable state, so it is gated behind the admin role.
	r.Mux.Handle("POST /v1/metrics/reset",
		httpx.Chain(&ResetHandler{MetricsService: r.MetricsService},
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole("admin"),
		),
	)

	if r.PromRegistry != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.PromRegistry, promhttp.HandlerOpts{}))
	}
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /healthz", HealthzHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
