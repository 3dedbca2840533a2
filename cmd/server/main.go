package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DukeRupert/equipcheck/internal"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/handler"
	"github.com/DukeRupert/equipcheck/internal/metrics"
	"github.com/DukeRupert/equipcheck/internal/middleware"
	"github.com/DukeRupert/equipcheck/internal/report"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// Upload limits per client IP.
const (
	uploadsPerWindow = 60
	uploadWindow     = time.Minute
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize record store and blob storage
	st, err := internal.OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	blobs, err := internal.OpenStorage(cfg, logger)
	if err != nil {
		return err
	}

	catalog, err := internal.LoadCatalog(cfg)
	if err != nil {
		return fmt.Errorf("catalog initialization failed: %w", err)
	}
	logger.Info("Catalog loaded", "equipment", catalog.Size())

	// Initialize services
	docs := report.NewGenerator(report.StorageImageLoader{Storage: blobs}, cfg.Location, logger)
	reportService := service.NewReportService(st, catalog, blobs, docs, service.ReportConfig{
		Location:          cfg.Location,
		DefaultSupervisor: cfg.SupervisorDefaultName,
	}, logger)
	userService := service.NewUserService(st, logger)
	evidenceService := service.NewEvidenceService(blobs, logger)

	if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		return fmt.Errorf("admin bootstrap failed: %w", err)
	}

	// Initialize middleware
	failures := middleware.NewRateLimiter(cfg.AuthMaxFailures, cfg.AuthFailureWindow, logger)
	defer failures.Stop()
	uploads := middleware.NewRateLimiter(uploadsPerWindow, uploadWindow, logger)
	defer uploads.Stop()

	proxies, err := middleware.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	authMw := middleware.NewAuthMiddleware(userService, failures, proxies, logger)
	uploadLimit := middleware.NewRateLimitMiddleware(uploads, proxies, logger)
	requestLogger := middleware.NewRequestLoggingMiddleware(proxies, logger)
	securityHeaders := middleware.NewSecurityHeadersMiddleware(!cfg.IsDevelopment())
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	requireUser := authMw.RequireUser
	requireSupervisor := middleware.Stack(authMw.RequireUser, authMw.RequireRole(domain.RoleSupervisor))

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	mux.Handle("GET /health", handler.NewHealthHandler(st, logger))
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	handler.NewCatalogHandler(catalog, logger).RegisterRoutes(mux, requireUser)
	handler.NewEvidenceHandler(evidenceService, logger).RegisterRoutes(mux, requireUser, uploadLimit.Limit)
	handler.NewReportHandler(reportService, cfg.Location, logger).RegisterRoutes(mux, requireUser, requireSupervisor)
	handler.NewUserHandler(userService, logger).RegisterRoutes(mux, requireUser, requireSupervisor)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		handler.NotFoundResponse(w, r, logger)
	})

	// Global middleware, outermost first
	root := middleware.Stack(
		metrics.Middleware,
		requestLogger.Handler,
		securityHeaders.Handler,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "store", cfg.StoreDriver, "storage", cfg.StorageProvider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
