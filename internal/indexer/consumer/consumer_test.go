package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
)

type fakeEngine struct {
	docs  []corpus.Document
	lines []string
	err   error
}

func (f *fakeEngine) IndexDocument(doc corpus.Document) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeEngine) AddLines(lines []string) {
	f.lines = append(f.lines, lines...)
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func encode(t *testing.T, ev ingestion.DocumentEvent) []byte {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestHandleMessageIndexes(t *testing.T) {
	eng := &fakeEngine{}
	inv := &countingInvalidator{err: errors.New("redis down")}
	h := HandleMessage(eng, inv)

	ev := ingestion.DocumentEvent{
		URL:        "https://example.com/go",
		Text:       "Go Concurrency\r\n\nChannels and goroutines",
		IngestedAt: time.Now(),
	}
	if err := h(context.Background(), []byte(ev.URL), encode(t, ev)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(eng.docs) != 1 {
		t.Fatalf("docs = %+v", eng.docs)
	}
	if want := []string{"go", "concurrency", "channels", "and", "goroutines"}; !slices.Equal(eng.docs[0].Tokens, want) {
		t.Fatalf("tokens = %v", eng.docs[0].Tokens)
	}
	if want := []string{"Go Concurrency", "Channels and goroutines"}; !slices.Equal(eng.lines, want) {
		t.Fatalf("lines = %q", eng.lines)
	}
	if inv.calls != 1 {
		t.Fatalf("invalidations = %d", inv.calls)
	}
}

func TestHandleMessageCommitsUnprocessable(t *testing.T) {
	tests := []struct {
		name  string
		value []byte
		err   error
	}{
		{"bad json", []byte("{"), nil},
		{"invalid url", []byte(`{"url":"ftp://x","text":"abc"}`), nil},
		{"duplicate", []byte(`{"url":"https://x","text":"abc"}`), fmt.Errorf("x: %w", apperrors.ErrDocumentExists)},
		{"rejected", []byte(`{"url":"https://x","text":"abc"}`), apperrors.InvalidInput("bad token")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := &fakeEngine{err: tt.err}
			inv := &countingInvalidator{}
			if err := HandleMessage(eng, inv)(context.Background(), nil, tt.value); err != nil {
				t.Fatalf("handler returned %v, want nil", err)
			}
			if inv.calls != 0 || len(eng.lines) != 0 {
				t.Fatalf("unprocessable event had side effects")
			}
		})
	}
}

func TestHandleMessageRetriesUnexpectedErrors(t *testing.T) {
	eng := &fakeEngine{err: errors.New("disk full")}
	err := HandleMessage(eng, nil)(context.Background(), nil, []byte(`{"url":"https://x","text":"abc"}`))
	if err == nil {
		t.Fatalf("expected error so the message is redelivered")
	}
}
