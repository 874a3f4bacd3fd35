package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"retail-insights/internal/handlers"
	"retail-insights/internal/observability"
	"retail-insights/internal/services"
	"retail-insights/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

type Server struct {
	analytics        *services.Analytics
	mux              *http.ServeMux
	logger           *slog.Logger
	metrics          *observability.Metrics
	apiHandlers      *handlers.APIHandlers
	sseHandlers      *handlers.SSEHandlers
	downloadHandlers *handlers.DownloadHandlers
}

// NewServer wires every route. metrics may be nil, in which case /metrics
// is not registered.
func NewServer(analytics *services.Analytics, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		analytics:        analytics,
		mux:              http.NewServeMux(),
		logger:           logger,
		metrics:          metrics,
		apiHandlers:      handlers.NewAPIHandlers(analytics, logger),
		sseHandlers:      handlers.NewSSEHandlers(analytics, logger),
		downloadHandlers: handlers.NewDownloadHandlers(analytics, logger),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.handleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/options", s.apiHandlers.HandleOptions)
	s.mux.HandleFunc("GET /api/insights", s.apiHandlers.HandleInsights)
	s.mux.HandleFunc("GET /api/records", s.apiHandlers.HandleRecords)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/insights", s.sseHandlers.HandleInsights)

	// Downloads
	s.mux.HandleFunc("GET /download/records.csv", s.downloadHandlers.HandleRecordsCSV)
	s.mux.HandleFunc("GET /download/insights.txt", s.downloadHandlers.HandleInsightsText)
	s.mux.HandleFunc("GET /download/insights.xlsx", s.downloadHandlers.HandleInsightsXLSX)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Dashboard(s.analytics.Options(), services.MaxPreviewRows).Render(ctx, w); err != nil {
		s.logger.Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
