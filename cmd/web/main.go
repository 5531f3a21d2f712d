package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"profit-engine/internal/config"
	"profit-engine/internal/middleware"
	"profit-engine/internal/observability"
	"profit-engine/internal/server"
	"profit-engine/internal/services"
	"profit-engine/internal/ui/templates"
)

const (
	renderTimeout  = 10 * time.Second
	csvLoadTimeout = 30 * time.Second
)

// dashboardHandler renders the page with the selection controls filled from
// the loaded history.
func dashboardHandler(history *services.History) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
		defer cancel()

		opts := history.Options()
		view := templates.DashboardView{
			Options: opts,
			Initial: templates.InitialSignals(opts),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		if err := templates.Dashboard(view).Render(ctx, w); err != nil {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

func newHandler(history *services.History, logger *slog.Logger, cfg *config.Config) http.Handler {
	templateHandlers := &server.TemplateHandlers{
		Dashboard: dashboardHandler(history),
	}

	srv := server.NewServer(history, logger, cfg, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewares := []middleware.Middleware{
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	}
	if cfg.Metrics.Enabled {
		middlewares = append(middlewares, middleware.Metrics())
	}

	return middleware.Chain(middlewares...)(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	history := services.NewHistory(cfg.Database.CacheDir)
	history.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := history.LoadFromCSV(ctx, cfg.Database.CSVFile); err != nil {
		logger.Error("failed to load CSV data", "error", err, "file", cfg.Database.CSVFile)
		os.Exit(1)
	}
	duration := time.Since(start)
	observability.TransactionsLoaded.Set(float64(history.Len()))
	logger.Info("CSV data loaded successfully", "duration", duration, "records", history.Len())

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(history, logger, cfg),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down history store", "records", history.Len())
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
