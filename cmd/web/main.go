package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"retail-insights/internal/config"
	"retail-insights/internal/handlers"
	"retail-insights/internal/middleware"
	"retail-insights/internal/observability"
	"retail-insights/internal/server"
	"retail-insights/internal/services"
)

const (
	csvLoadTimeout      = 30 * time.Second
	rateLimiterSweep    = time.Minute
	rateLimiterIdleTime = 3 * time.Minute
)

// newHandler builds the routed server wrapped in the middleware chain.
// Metrics sits innermost so it sees the pattern ServeMux matched.
func newHandler(cfg *config.Config, analytics *services.Analytics, metrics *observability.Metrics, limiter *middleware.RateLimiter, logger *slog.Logger) http.Handler {
	srv := server.NewServer(analytics, logger, metrics)

	chain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(limiter, logger),
		middleware.Metrics(metrics),
	)

	return chain(srv)
}

func newAnalytics(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *services.Analytics {
	opts := []services.Option{
		services.WithEncoding(cfg.Data.Encoding),
		services.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts, services.WithRecorder(metrics))
	}
	if cfg.Data.CacheEnabled {
		opts = append(opts, services.WithCache(services.NewCache(cfg.Data.CacheDir)))
	}
	return services.NewAnalytics(opts...)
}

// sweepRateLimiter drops idle clients until ctx is done.
func sweepRateLimiter(ctx context.Context, limiter *middleware.RateLimiter, logger *slog.Logger) {
	ticker := time.NewTicker(rateLimiterSweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(rateLimiterIdleTime); n > 0 {
				logger.Debug("rate limiter sweep", "removed", n, "remaining", limiter.Len())
			}
		}
	}
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
		"version", handlers.Version,
		"addr", cfg.Address(),
		"csv_file", cfg.Data.CSVFile,
		"encoding", cfg.Data.Encoding,
	)

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics()
	}

	analytics := newAnalytics(cfg, metrics, logger)

	ctx, cancel := context.WithTimeout(context.Background(), csvLoadTimeout)
	start := time.Now()
	err = analytics.LoadFromCSV(ctx, cfg.Data.CSVFile)
	cancel()
	if err != nil {
		logger.Error("failed to load CSV data", "error", err)
		os.Exit(1)
	}
	logger.Info("CSV data loaded successfully", "duration", time.Since(start), "records", analytics.RecordCount())

	limiter := middleware.NewRateLimiter(cfg.Security)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	go sweepRateLimiter(sweepCtx, limiter, logger)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, analytics, metrics, limiter, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping rate limiter sweep")
		stopSweep()
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
