// Package analytics records what users search for. Query events flow from
// the search handler through Kafka to an aggregator that keeps popularity,
// latency and zero-result statistics; an in-process Tracker answers
// top-search questions without the pipeline.
package analytics

import (
	"time"

	"github.com/google/uuid"
)

type Operation string

const (
	OpAutocomplete Operation = "autocomplete"
	OpSpellcheck   Operation = "spellcheck"
	OpRank         Operation = "rank"
	OpIndexLookup  Operation = "index"
	OpFrequency    Operation = "frequency"
)

type SearchEvent struct {
	ID        string    `json:"id"`
	Operation Operation `json:"operation"`
	Query     string    `json:"query"`
	Returned  int       `json:"returned"`
	Found     bool      `json:"found"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
}

// NewSearchEvent stamps an event with a fresh ID and the current time.
func NewSearchEvent(op Operation, query string) SearchEvent {
	return SearchEvent{
		ID:        uuid.NewString(),
		Operation: op,
		Query:     query,
		Timestamp: time.Now().UTC(),
	}
}
