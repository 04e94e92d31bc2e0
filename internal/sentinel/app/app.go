// Package app assembles the engine: configuration, store, services, HTTP
// server, and the graceful lifecycle around them.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/sentinelsec/sentinel/internal/sentinel/http"
	"github.com/sentinelsec/sentinel/internal/sentinel/service"
	"github.com/sentinelsec/sentinel/internal/sentinel/store"
	"github.com/sentinelsec/sentinel/internal/sentinel/store/drivers/sqlite"
	"github.com/sentinelsec/sentinel/internal/sentinel/telemetry"
	"github.com/sentinelsec/sentinel/pkg/jwtx"
	"github.com/sentinelsec/sentinel/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the engine with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	latency  *telemetry.LatencyTracker

	tokenService   *service.TokenService
	auditService   *service.AuditService
	authService    *service.AuthService
	metricsService *service.SecurityMetricsService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "sentinel",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	codec, err := jwtx.NewCodec([]byte(cfg.JWTSecret), cfg.Issuer)
	if err != nil {
		return nil, err
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initTelemetry(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("sentinel starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the HTTP server and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down sentinel...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("sentinel stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initTelemetry() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	app.metrics = telemetry.NewMetrics()
	if err := app.metrics.Register(app.registry); err != nil {
		return fmt.Errorf("failed to register collectors: %w", err)
	}

	app.latency = telemetry.NewLatencyTracker(
		app.cfg.LatencyWindow,
		app.cfg.SLAThresholdMs,
		app.cfg.BaselineLatencyMs,
		app.metrics,
	)
	return nil
}

func (app *Application) initServices() {
	app.tokenService = &service.TokenService{
		Store:      app.db,
		Codec:      app.codec,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.auditService = &service.AuditService{
		Store:   app.db,
		Metrics: app.metrics,
	}

	app.authService = &service.AuthService{
		Store:            app.db,
		Tokens:           app.tokenService,
		Audit:            app.auditService,
		Latency:          app.latency,
		Metrics:          app.metrics,
		MaxLoginAttempts: app.cfg.MaxLoginAttempts,
	}

	app.metricsService = &service.SecurityMetricsService{
		Store:   app.db,
		Latency: app.latency,
		Metrics: app.metrics,
	}
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.logger,
		app.cfg.CORSOrigins,
	)

	router.AuthService = app.authService
	router.MetricsService = app.metricsService
	router.Latency = app.latency
	router.PromRegistry = app.registry
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
