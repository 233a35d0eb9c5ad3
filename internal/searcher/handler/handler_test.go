package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
)

type recordingTracker struct {
	mu     sync.Mutex
	events []analytics.SearchEvent
}

func (r *recordingTracker) Track(e analytics.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

type mapBackend struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (b *mapBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.data[key]
	if !ok {
		return nil, redis.Nil
	}
	return v, nil
}

func (b *mapBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return nil
}

func (b *mapBackend) FlushByPattern(_ context.Context, _ string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := int64(len(b.data))
	b.data = make(map[string][]byte)
	return n, nil
}

type fixture struct {
	mux    *http.ServeMux
	events *recordingTracker
	m      *metrics.Metrics
	cache  *cache.QueryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	engine := indexer.NewEngine(config.EngineConfig{
		AutocompleteLimit: 3,
		SpellcheckLimit:   3,
		TopK:              5,
		BuildWorkers:      2,
	}, nil)
	docs := []corpus.Document{
		{URL: "docA", Tokens: []string{"python", "is", "fun", "python"}},
		{URL: "docB", Tokens: []string{"java", "is", "fun"}},
	}
	lines := []string{"Python is fun, python rocks", "Java is fun"}
	if _, err := engine.Build(context.Background(), docs, lines); err != nil {
		t.Fatal(err)
	}

	m := metrics.New(prometheus.NewRegistry())
	qc := cache.New(&mapBackend{data: make(map[string][]byte)}, time.Minute, m)
	events := &recordingTracker{}
	mux := http.NewServeMux()
	New(engine, qc, events, nil, m).Routes(mux)
	return &fixture{mux: mux, events: events, m: m, cache: qc}
}

func (f *fixture) get(t *testing.T, target string) (int, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding %s: %v", target, err)
	}
	return rec.Code, resp
}

func TestQueryEndpoints(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantCode    int
		wantMessage string
		wantLen     int
	}{
		{"autocomplete", "/api/v1/autocomplete?query=py", 200, 0, MsgFound, 1},
		{"autocomplete none", "/api/v1/autocomplete?query=zz", 200, 0, MsgNoData, 0},
		{"spellcheck", "/api/v1/spellcheck?query=pyhton", 200, 0, MsgFound, 3},
		{"rank", "/api/v1/rank?word=Python", 200, 0, MsgFound, 1},
		{"rank absent", "/api/v1/rank?word=rust", 200, 0, MsgNoData, 0},
		{"index", "/api/v1/index?word=is", 200, 0, MsgFound, 2},
		{"index absent", "/api/v1/index?word=rust", 200, 0, MsgWordNotFound, 0},
		{"frequency", "/api/v1/frequency?keyword=python", 200, 0, MsgFound, 1},
		{"invalid digits", "/api/v1/rank?word=py3", 400, -1, MsgInvalidWord, 0},
		{"invalid empty", "/api/v1/index?word=", 400, -1, MsgInvalidWord, 0},
		{"invalid space", "/api/v1/spellcheck?query=two+words", 400, -1, MsgInvalidWord, 0},
		{"invalid k", "/api/v1/frequency?keyword=python&k=0", 400, -1, "k must be an integer between 1 and 100", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := f.get(t, tt.target)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if resp.StatusCode != tt.wantCode || resp.Message != tt.wantMessage {
				t.Errorf("envelope = %d %q, want %d %q", resp.StatusCode, resp.Message, tt.wantCode, tt.wantMessage)
			}
			data, ok := resp.Data.([]any)
			if !ok {
				t.Fatalf("data is %T, want a list", resp.Data)
			}
			if len(data) != tt.wantLen {
				t.Errorf("len(data) = %d, want %d", len(data), tt.wantLen)
			}
		})
	}
}

func TestRankPayload(t *testing.T) {
	f := newFixture(t)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rank?word=fun", nil))
	var resp struct {
		Data []struct {
			Word      string `json:"word"`
			Frequency int    `json:"frequency"`
			URL       string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 || resp.Data[0].URL != "docA" || resp.Data[1].URL != "docB" {
		t.Fatalf("data = %+v", resp.Data)
	}
}

func TestFrequencyPayloadAndTopSearches(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/api/v1/frequency?keyword=fun")
	f.get(t, "/api/v1/frequency?keyword=python")
	f.get(t, "/api/v1/frequency?keyword=FUN")

	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/frequency?keyword=python&k=2", nil))
	var freq struct {
		Data []FrequencyData `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&freq); err != nil {
		t.Fatal(err)
	}
	if len(freq.Data) != 1 || freq.Data[0].Count != 2 || len(freq.Data[0].TopWords) != 2 {
		t.Fatalf("frequency = %+v", freq.Data)
	}

	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/searches/top?n=1", nil))
	var top struct {
		Data []analytics.QueryCount `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&top); err != nil {
		t.Fatal(err)
	}
	if len(top.Data) != 1 || top.Data[0] != (analytics.QueryCount{Query: "fun", Count: 2}) {
		t.Fatalf("top searches = %+v", top.Data)
	}
}

func TestCachedQueriesAndEvents(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/api/v1/rank?word=python")
	f.get(t, "/api/v1/rank?word=python")
	f.get(t, "/api/v1/rank?word=py1")

	if len(f.events.events) != 2 {
		t.Fatalf("tracked %d events, want 2", len(f.events.events))
	}
	first, second := f.events.events[0], f.events.events[1]
	if first.CacheHit || !second.CacheHit {
		t.Fatalf("cache hits = %v, %v", first.CacheHit, second.CacheHit)
	}
	if first.Operation != analytics.OpRank || first.Query != "python" || !first.Found || first.Returned != 1 {
		t.Fatalf("event = %+v", first)
	}

	if got := testutil.ToFloat64(f.m.QueriesTotal.WithLabelValues("rank", "found")); got != 2 {
		t.Fatalf("found queries = %v", got)
	}
	if got := testutil.ToFloat64(f.m.QueriesTotal.WithLabelValues("rank", "invalid")); got != 1 {
		t.Fatalf("invalid queries = %v", got)
	}
	if hits, _ := f.cache.Stats(); hits != 1 {
		t.Fatalf("cache hits = %d", hits)
	}
}

func TestNotFoundEventIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/api/v1/index?word=rust")
	if len(f.events.events) != 1 || f.events.events[0].Found {
		t.Fatalf("events = %+v", f.events.events)
	}
}

func TestStatsAndCacheEndpoints(t *testing.T) {
	f := newFixture(t)
	_, resp := f.get(t, "/api/v1/stats")
	data := resp.Data.([]any)
	stats := data[0].(map[string]any)
	if stats["documents"] != float64(2) || stats["vocabulary"] != float64(4) {
		t.Fatalf("stats = %v", stats)
	}

	f.get(t, "/api/v1/autocomplete?query=ja")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("invalidate status = %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache/stats", nil))
	var cs map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&cs); err != nil {
		t.Fatal(err)
	}
	if cs["misses"] != float64(1) {
		t.Fatalf("cache stats = %v", cs)
	}
}

func TestWithoutCacheOrTracker(t *testing.T) {
	engine := indexer.NewEngine(config.EngineConfig{AutocompleteLimit: 3, SpellcheckLimit: 3, TopK: 5, BuildWorkers: 1}, nil)
	mux := http.NewServeMux()
	New(engine, nil, nil, nil, nil).Routes(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/autocomplete?query=a", nil))
	var resp Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != MsgNoData || resp.StatusCode != 0 {
		t.Fatalf("resp = %+v", resp)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/cache/invalidate", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("invalidate without cache = %d", rec.Code)
	}
}
