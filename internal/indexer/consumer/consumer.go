// Package consumer reads document events from the ingest topic and adds each
// document to the live engine, then drops cached query results that the new
// document may have changed.
package consumer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion/validator"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/kafka"
)

// DocumentIndexer is the write side of the engine.
type DocumentIndexer interface {
	IndexDocument(doc corpus.Document) error
	AddLines(lines []string)
}

// Invalidator drops cached query results.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IndexConsumer wraps a Kafka consumer to drive live indexing.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that indexes every document event
// into engine. Undecodable, invalid and already indexed documents are logged
// and committed so they are not redelivered. inv may be nil.
func HandleMessage(engine DocumentIndexer, inv Invalidator) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[ingestion.DocumentEvent](value)
		if err != nil {
			logger.Error("failed to decode document event",
				"error", err,
				"key", string(key),
			)
			return nil
		}
		req := ingestion.IngestRequest{URL: event.URL, Text: event.Text}
		if err := validator.ValidateIngestRequest(&req); err != nil {
			logger.Warn("dropping invalid document event", "url", event.URL, "error", err)
			return nil
		}

		doc := corpus.NewDocument(req.URL, req.Text)
		if err := engine.IndexDocument(doc); err != nil {
			if apperrors.Is(err, apperrors.ErrDocumentExists) {
				logger.Info("document already indexed", "url", doc.URL)
				return nil
			}
			if apperrors.Is(err, apperrors.ErrInvalidInput) {
				logger.Warn("document rejected", "url", doc.URL, "error", err)
				return nil
			}
			return fmt.Errorf("indexing document %s: %w", doc.URL, err)
		}
		engine.AddLines(splitLines(req.Text))

		if inv != nil {
			if err := inv.Invalidate(ctx); err != nil {
				logger.Warn("cache invalidation failed", "error", err)
			}
		}
		logger.Info("document indexed",
			"url", doc.URL,
			"tokens", len(doc.Tokens),
			"lag_ms", time.Since(event.IngestedAt).Milliseconds(),
		)
		return nil
	}
}

func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimRight(l, "\r"))
		}
	}
	return lines
}
