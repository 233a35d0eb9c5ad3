// Command analytics starts the standalone analytics aggregation service.
//
// It consumes search events from Kafka, aggregates them in memory (query
// counts per operation, latency percentiles, cache hit rate, zero-result and
// top queries), snapshots the aggregate to PostgreSQL on an interval and
// exposes an HTTP API for dashboards.
//
// Usage:
//
//	go run ./cmd/analytics [-config configs/development.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics/store"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting analytics service", "port", cfg.Analytics.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aggregator := analytics.NewAggregator(cfg.Analytics.TopN)
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents, analytics.HandleEvent(aggregator),
		kafka.WithGroup(cfg.Kafka.ConsumerGroup+"-analytics"))
	defer consumer.Close()
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("analytics consumer error", "error", err)
		}
	}()
	slog.Info("analytics aggregator started", "topic", cfg.Kafka.Topics.SearchEvents)

	checker := health.NewChecker()
	checker.Register("kafka", func(ctx context.Context) health.ComponentHealth {
		return health.ComponentHealth{Status: health.StatusUp, Message: "consumer active"}
	})

	var snapshots *store.Store
	db, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		slog.Warn("postgres unavailable, snapshots disabled", "error", err)
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not connected"}
		})
	} else {
		defer db.Close()
		snapshots = store.New(db)
		if err := snapshots.Migrate(ctx); err != nil {
			slog.Error("failed to migrate analytics tables", "error", err)
			os.Exit(1)
		}
		snapshots.StartPeriodicSave(ctx, aggregator, cfg.Analytics.SnapshotInterval)
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := db.DB.PingContext(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	analyticsHandler := analytics.NewHandler(aggregator)
	mux := http.NewServeMux()
	if snapshots != nil {
		mux.HandleFunc("GET /api/v1/analytics/history", snapshots.HistoryHandler())
	}
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /api/v1/analytics/top", analyticsHandler.TopQueries)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Analytics.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("analytics service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("analytics service stopped")
}
