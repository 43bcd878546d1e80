package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"margincli/internal/config"
	"margincli/internal/costs"
	apperrors "margincli/internal/errors"
	"margincli/internal/files"
	"margincli/internal/infrastructure"
	customMiddleware "margincli/internal/middleware"
	"margincli/internal/services"
	handlers "margincli/internal/transport/http"
	validationpkg "margincli/internal/validation"
)

const (
	VERSION = "1.0.0"
	AppName = config.AppName
)

// Application represents the main application container
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Logger   *slog.Logger
	Services *ServiceContainer
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analysis *services.AnalysisService
	Costs    *services.CostService
	Reports  *services.ReportService
	Health   *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	store, err := a.buildCostStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize cost store: %w", err)
	}

	costService := services.NewCostService(store, a.Logger)
	if err := costService.Reload(ctx); err != nil {
		// Startup without the cost backend degrades to zero costs instead of
		// refusing to serve.
		a.Logger.Warn("initial cost mapping load failed, starting with an empty mapping",
			slog.String("error", err.Error()))
	}

	analysisService := services.NewAnalysisService(a.Config.Analysis, costService, a.Logger)
	reportService := services.NewReportService(analysisService, a.Logger)
	healthService := services.NewHealthService(VERSION, "", a.Config.Paths, costService, analysisService, a.Logger)

	a.Services = &ServiceContainer{
		Analysis: analysisService,
		Costs:    costService,
		Reports:  reportService,
		Health:   healthService,
	}
	return nil
}

// buildCostStore selects the configured cost store backend.
func (a *Application) buildCostStore(ctx context.Context) (costs.Store, error) {
	switch a.Config.Costs.Backend {
	case "memory":
		a.Logger.Info("using in-memory cost store")
		return costs.NewMemoryStore(nil), nil
	default:
		return costs.NewSheetStore(ctx, a.Logger, a.Config.Costs)
	}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := apperrors.NewErrorHandler(a.Logger, false)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apperrors.RecoveryMiddleware(errorHandler))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{Logger: a.Logger}))

	// Per-application registry keeps repeated construction (tests, embedding)
	// from tripping duplicate collector registration.
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.Use(customMiddleware.NewMetrics(registry).Handler)

	if a.Config.Server.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Server.RateLimit.RPS,
			a.Config.Server.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		uploads := validationpkg.NewUploadValidator(a.Logger, config.MaxUploadSize)
		archive := files.NewArchive(a.Config.Paths.ReportsDir, a.Logger)

		r.Mount("/data", handlers.NewUploadHandler(a.Services.Analysis, uploads, a.Logger, errorHandler).Routes())
		r.Mount("/analysis", handlers.NewAnalysisHandler(a.Services.Analysis, a.Logger, errorHandler).Routes())
		r.Mount("/costs", handlers.NewCostHandler(a.Services.Costs, a.Services.Analysis, validation, a.Logger, errorHandler).Routes())
		r.Mount("/report", handlers.NewReportHandler(a.Services.Reports, archive, a.Logger, errorHandler).Routes())

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
	})

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Run starts the server and blocks until the context is cancelled or an
// interrupt arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("address", a.Server.Addr),
			slog.String("version", VERSION))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		infrastructure.CloseLogFile()
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	a.Logger.Info("application shutdown complete")
	return nil
}
