// Command indexer publishes a CSV corpus to the document ingest topic. Every
// query server with live ingestion enabled indexes the published documents.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "CSV corpus to publish (defaults to engine.corpusPath)")
	batchSize := flag.Int("batch", 100, "documents per Kafka batch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	path := *corpusPath
	if path == "" {
		path = cfg.Engine.CorpusPath
	}
	slog.Info("starting indexer", "corpus", path, "topic", cfg.Kafka.Topics.DocumentIngest)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := corpus.LoadFile(path)
	if err != nil {
		slog.Error("failed to load corpus", "error", err)
		os.Exit(1)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
	defer producer.Close()

	sent, err := publisher.New(producer).PublishBatch(ctx, c.Requests(), *batchSize)
	if err != nil {
		slog.Error("publishing corpus failed", "published", sent, "error", err)
		os.Exit(1)
	}
	slog.Info("corpus published",
		"documents", sent,
		"rows_skipped", c.Skipped,
	)
}
