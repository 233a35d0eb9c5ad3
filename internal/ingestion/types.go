// Package ingestion defines the request/response types and Kafka event schema
// of the document ingestion pipeline. Documents enter either from a CSV
// corpus or the HTTP endpoint and reach the engine as DocumentEvents.
package ingestion

import "time"

// IngestRequest is the JSON body accepted by the ingestion HTTP endpoint.
type IngestRequest struct {
	URL  string `json:"url" validate:"required,max=2048,contains=https://"`
	Text string `json:"text" validate:"required,max=1048576"`
}

// IngestResponse is returned to the caller once a document is queued.
type IngestResponse struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// DocumentEvent is the Kafka payload consumed by the indexer. Text is the raw
// extracted body; consumers tokenize it.
type DocumentEvent struct {
	URL        string    `json:"url"`
	Text       string    `json:"text"`
	IngestedAt time.Time `json:"ingested_at"`
}
