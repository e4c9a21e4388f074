package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tradedash/internal/config"
	"tradedash/internal/dataset"
	"tradedash/internal/middleware"
	"tradedash/internal/models"
	"tradedash/internal/observability"
	"tradedash/internal/server"
	"tradedash/internal/services"
	"tradedash/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
	cacheMaxAge    = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard(models.DefaultSelections()).Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// loadDashboard reads the configured CSV (through the table cache) and
// draws the sample every request works from.
func loadDashboard(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.Dashboard, error) {
	ctx, cancel := context.WithTimeout(ctx, csvLoadTimeout)
	defer cancel()

	start := time.Now()
	table, err := dataset.NewLoader(cfg.Dashboard.CacheDir, logger).Load(ctx, cfg.Database.CSVFile)
	if err != nil {
		return nil, fmt.Errorf("load CSV data: %w", err)
	}
	logger.Info("CSV data loaded successfully", "duration", time.Since(start))

	return services.NewDashboard(table, services.Options{
		SampleSize: cfg.Dashboard.SampleSize,
		Seed:       cfg.Dashboard.Seed,
	}, logger)
}

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Load the dataset and serve the dashboard over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg.Logger, nil)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	tp := observability.InstallTracerProvider()

	dashboard, err := loadDashboard(ctx, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.NewServer(dashboard, logger, version, &server.TemplateHandlers{
		Dashboard: handleDashboard,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.Security)
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	go rateLimiter.Run(limiterCtx)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.CSRF(cfg.Security, logger),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      middlewareChain(srv),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		stopLimiter()
		logger.Info("shutting down dashboard service", "stats", dashboard.Stats())
		return nil
	})
	gracefulServer.RegisterShutdownHook(tp.Shutdown)

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("application stopped gracefully")
	return nil
}
