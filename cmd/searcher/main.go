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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/consumer"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/middleware"
	pkgredis "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/redis"
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
	slog.Info("starting search service", "port", cfg.Server.Port, "corpus", cfg.Engine.CorpusPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, reg)
		defer shutdownMetrics(context.Background())
	}

	c, err := corpus.LoadFile(cfg.Engine.CorpusPath)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}
	engine := indexer.NewEngine(cfg.Engine, m)
	stats, err := engine.Build(ctx, c.Documents, c.Lines)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	slog.Info("engine ready",
		"documents", stats.Documents,
		"vocabulary", stats.Vocabulary,
		"rows_skipped", c.Skipped+stats.Skipped,
	)

	var redisClient *pkgredis.Client
	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, query caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			queryCache = cache.New(redisClient, cfg.Redis.CacheTTL, m)
			slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	if queryCache == nil {
		queryCache = cache.New(nil, 0, m)
	}

	var events handler.EventTracker
	if cfg.Analytics.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.SearchEvents)
		defer producer.Close()
		collector := analytics.NewCollector(producer, cfg.Analytics.BufferSize, 0, 0)
		collector.Start(ctx)
		defer collector.Close()
		events = collector
		slog.Info("analytics collector started", "topic", cfg.Kafka.Topics.SearchEvents)
	}

	mux := http.NewServeMux()
	if cfg.Engine.LiveIngest {
		hostname, _ := os.Hostname()
		kafkaConsumer := kafka.NewConsumer(
			cfg.Kafka,
			cfg.Kafka.Topics.DocumentIngest,
			consumer.HandleMessage(engine, queryCache),
			kafka.WithGroup(cfg.Kafka.ConsumerGroup+"-"+hostname),
			kafka.FromBeginning(),
		)
		defer kafkaConsumer.Close()
		indexConsumer := consumer.New(kafkaConsumer)
		go func() {
			if err := indexConsumer.Start(ctx); err != nil {
				slog.Error("index consumer error", "error", err)
			}
		}()

		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
		defer producer.Close()
		ingest := ingesthandler.New(publisher.New(producer))
		mux.HandleFunc("POST /api/v1/documents", ingest.Ingest)
		slog.Info("live ingestion enabled", "topic", cfg.Kafka.Topics.DocumentIngest)
	}

	checker := health.NewChecker()
	checker.Register("engine", func(ctx context.Context) health.ComponentHealth {
		st := engine.Stats()
		if st.Documents == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no documents indexed"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d words", st.Documents, st.Vocabulary),
		}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	h := handler.New(engine, queryCache, events, analytics.NewTracker(), m)
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if cfg.RateLimit.RPS > 0 {
		chain = middleware.RateLimit(middleware.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst))(chain)
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	}
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
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

	slog.Info("search service listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("search service stopped")
}
