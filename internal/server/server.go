package server

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"profit-engine/internal/config"
	"profit-engine/internal/handlers"
	"profit-engine/internal/services"
)

type Server struct {
	history     *services.History
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(history *services.History, logger *slog.Logger, cfg *config.Config, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		history:     history,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(history, logger),
		sseHandlers: handlers.NewSSEHandlers(history, logger, cfg.UI.CurrencySymbol),
	}
	s.setupRoutes(cfg, templateHandlers)
	return s
}

func (s *Server) setupRoutes(cfg *config.Config, templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	if cfg.Metrics.Enabled {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/history", s.apiHandlers.HandleHistory)
	s.mux.HandleFunc("GET /api/simulate", s.apiHandlers.HandleSimulate)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/simulate", s.sseHandlers.HandleSimulate)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
