// Package publisher turns validated documents into DocumentEvents on the
// ingest topic. The indexer consumes them and adds each document to the live
// engine.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/kafka"
)

// EventWriter is the subset of kafka.Producer the publisher needs.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

type Publisher struct {
	producer EventWriter
	logger   *slog.Logger
	now      func() time.Time
}

func New(producer EventWriter) *Publisher {
	return &Publisher{
		producer: producer,
		logger:   slog.Default().With("component", "publisher"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ingest publishes a single document keyed by its URL, so every event for a
// URL lands on the same partition.
func (p *Publisher) Ingest(ctx context.Context, req *ingestion.IngestRequest) (*ingestion.IngestResponse, error) {
	event := kafka.Event{Key: req.URL, Value: p.event(req.URL, req.Text)}
	if err := p.producer.Publish(ctx, event); err != nil {
		return nil, fmt.Errorf("publishing document %s: %w", req.URL, err)
	}
	p.logger.Debug("document queued", "url", req.URL, "bytes", len(req.Text))
	return &ingestion.IngestResponse{URL: req.URL, Status: "QUEUED"}, nil
}

// PublishBatch publishes documents in chunks of batchSize and returns how many
// were written before the first failure.
func (p *Publisher) PublishBatch(ctx context.Context, docs []ingestion.IngestRequest, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	sent := 0
	for start := 0; start < len(docs); start += batchSize {
		end := min(start+batchSize, len(docs))
		events := make([]kafka.Event, 0, end-start)
		for _, d := range docs[start:end] {
			events = append(events, kafka.Event{Key: d.URL, Value: p.event(d.URL, d.Text)})
		}
		if err := p.producer.PublishBatch(ctx, events); err != nil {
			return sent, fmt.Errorf("publishing batch at %d: %w", start, err)
		}
		sent += len(events)
		p.logger.Info("batch published", "sent", sent, "total", len(docs))
	}
	return sent, nil
}

func (p *Publisher) event(url, text string) ingestion.DocumentEvent {
	return ingestion.DocumentEvent{URL: url, Text: text, IngestedAt: p.now()}
}
