// Package handler serves the query surface over HTTP. Every answer is wrapped
// in an envelope {status_code, message, data}: status_code is 0 when the
// request was answered (including "No Data Found" and "Word Not Found") and
// -1 when the argument was rejected or the query failed.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/substring"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/middleware"
)

const (
	MsgFound        = "Successfully Found Data"
	MsgNoData       = "No Data Found"
	MsgWordNotFound = "Word Not Found"
	MsgInvalidWord  = "Word received is not valid"
	MsgFailed       = "Query failed"
)

const maxListParam = 100

// Engine is the query surface of *indexer.Engine.
type Engine interface {
	Autocomplete(prefix string, limit int) ([]string, error)
	Spellcheck(query string, limit int) ([]string, error)
	RankByWord(word string, limit int) ([]ranker.RankedResult, error)
	Lookup(word string) ([]index.Entry, error)
	SubstringFrequency(pattern string) (int, error)
	TopFrequentWords(k int) []substring.WordCount
	Stats() indexer.Stats
}

// EventTracker receives one event per answered query.
type EventTracker interface {
	Track(event analytics.SearchEvent)
}

// Popularity counts frequency searches per keyword.
type Popularity interface {
	Record(pattern string)
	Top(n int) []analytics.QueryCount
}

type Response struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

type FrequencyData struct {
	Count    int                   `json:"count"`
	TopWords []substring.WordCount `json:"top_words"`
}

type wordQuery struct {
	Word string `validate:"required,alpha"`
}

type Handler struct {
	engine     Engine
	cache      *cache.QueryCache
	events     EventTracker
	popularity Popularity
	m          *metrics.Metrics
	validate   *validator.Validate
	logger     *slog.Logger
}

// New wires a handler. queryCache, events and m may be nil; a nil popularity
// gets a fresh in-process tracker.
func New(engine Engine, queryCache *cache.QueryCache, events EventTracker, popularity Popularity, m *metrics.Metrics) *Handler {
	if popularity == nil {
		popularity = analytics.NewTracker()
	}
	return &Handler{
		engine:     engine,
		cache:      queryCache,
		events:     events,
		popularity: popularity,
		m:          m,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Routes registers the query endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/autocomplete", h.Autocomplete)
	mux.HandleFunc("GET /api/v1/spellcheck", h.Spellcheck)
	mux.HandleFunc("GET /api/v1/rank", h.Rank)
	mux.HandleFunc("GET /api/v1/index", h.Index)
	mux.HandleFunc("GET /api/v1/frequency", h.Frequency)
	mux.HandleFunc("GET /api/v1/searches/top", h.TopSearches)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	word, ok := h.word(w, r, analytics.OpAutocomplete, "query")
	if !ok {
		return
	}
	start := time.Now()
	words, hit, err := compute(r.Context(), h.cache, analytics.OpAutocomplete, word, func() ([]string, error) {
		return h.engine.Autocomplete(word, 0)
	})
	h.answer(w, r, analytics.OpAutocomplete, word, start, hit, words, len(words), err)
}

func (h *Handler) Spellcheck(w http.ResponseWriter, r *http.Request) {
	word, ok := h.word(w, r, analytics.OpSpellcheck, "query")
	if !ok {
		return
	}
	start := time.Now()
	words, hit, err := compute(r.Context(), h.cache, analytics.OpSpellcheck, word, func() ([]string, error) {
		return h.engine.Spellcheck(word, 0)
	})
	h.answer(w, r, analytics.OpSpellcheck, word, start, hit, words, len(words), err)
}

func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	word, ok := h.word(w, r, analytics.OpRank, "word")
	if !ok {
		return
	}
	start := time.Now()
	ranked, hit, err := compute(r.Context(), h.cache, analytics.OpRank, word, func() ([]ranker.RankedResult, error) {
		return h.engine.RankByWord(word, 0)
	})
	h.answer(w, r, analytics.OpRank, word, start, hit, ranked, len(ranked), err)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	word, ok := h.word(w, r, analytics.OpIndexLookup, "word")
	if !ok {
		return
	}
	start := time.Now()
	entries, hit, err := compute(r.Context(), h.cache, analytics.OpIndexLookup, word, func() ([]index.Entry, error) {
		return h.engine.Lookup(word)
	})
	h.answer(w, r, analytics.OpIndexLookup, word, start, hit, entries, len(entries), err)
}

// Frequency counts keyword across the raw corpus lines and returns the k most
// frequent corpus terms alongside.
func (h *Handler) Frequency(w http.ResponseWriter, r *http.Request) {
	keyword, ok := h.word(w, r, analytics.OpFrequency, "keyword")
	if !ok {
		return
	}
	k, ok := h.intParam(w, r, analytics.OpFrequency, "k")
	if !ok {
		return
	}
	h.popularity.Record(keyword)

	start := time.Now()
	count, hit, err := compute(r.Context(), h.cache, analytics.OpFrequency, keyword, func() (int, error) {
		return h.engine.SubstringFrequency(keyword)
	})
	data := []FrequencyData{{Count: count, TopWords: h.engine.TopFrequentWords(k)}}
	if err != nil {
		data = nil
	}
	h.answer(w, r, analytics.OpFrequency, keyword, start, hit, data, count, err)
}

// TopSearches lists the most requested frequency keywords.
func (h *Handler) TopSearches(w http.ResponseWriter, r *http.Request) {
	n, ok := h.intParam(w, r, "searches", "n")
	if !ok {
		return
	}
	top := h.popularity.Top(n)
	msg := MsgFound
	if len(top) == 0 {
		msg = MsgNoData
	}
	h.writeJSON(w, http.StatusOK, Response{StatusCode: apperrors.StatusOK, Message: msg, Data: top})
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{
		StatusCode: apperrors.StatusOK,
		Message:    MsgFound,
		Data:       []indexer.Stats{h.engine.Stats()},
	})
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "caching is disabled"})
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache invalidation failed"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// compute runs fn through the query cache when one is configured.
func compute[T any](ctx context.Context, c *cache.QueryCache, op analytics.Operation, arg string, fn func() (T, error)) (T, bool, error) {
	if c == nil {
		v, err := fn()
		return v, false, err
	}
	return cache.GetOrCompute(ctx, c, string(op), arg, fn)
}

// word reads and validates a letters-only query parameter. On failure it
// writes the invalid-word envelope and returns false.
func (h *Handler) word(w http.ResponseWriter, r *http.Request, op analytics.Operation, param string) (string, bool) {
	q := wordQuery{Word: r.URL.Query().Get(param)}
	if err := h.validate.Struct(q); err != nil {
		logger.FromContext(r.Context()).Debug("rejected query", "operation", op, "param", param, "value", q.Word)
		h.observe(op, "invalid", 0, 0)
		h.writeJSON(w, http.StatusBadRequest, Response{StatusCode: apperrors.StatusError, Message: MsgInvalidWord, Data: []any{}})
		return "", false
	}
	return q.Word, true
}

// intParam reads an optional positive integer parameter; absent means 0.
func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, op analytics.Operation, param string) (int, bool) {
	v := r.URL.Query().Get(param)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxListParam {
		h.observe(op, "invalid", 0, 0)
		h.writeJSON(w, http.StatusBadRequest, Response{
			StatusCode: apperrors.StatusError,
			Message:    param + " must be an integer between 1 and " + strconv.Itoa(maxListParam),
			Data:       []any{},
		})
		return 0, false
	}
	return n, true
}

// answer writes the envelope for a query result, then records metrics and
// the analytics event.
func (h *Handler) answer(w http.ResponseWriter, r *http.Request, op analytics.Operation, arg string, start time.Time, hit bool, data any, n int, err error) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	latency := time.Since(start)

	resp := Response{StatusCode: apperrors.EnvelopeStatus(err), Message: MsgFound, Data: data}
	status := http.StatusOK
	outcome := "found"
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		resp.Message, resp.Data, outcome = MsgWordNotFound, []any{}, "not_found"
	case errors.Is(err, apperrors.ErrInvalidInput):
		resp.Message, resp.Data, outcome = MsgInvalidWord, []any{}, "invalid"
		status = http.StatusBadRequest
	case err != nil:
		log.Error("query failed", "operation", op, "query", arg, "error", err)
		resp.Message, resp.Data, outcome = MsgFailed, []any{}, "error"
		status = apperrors.HTTPStatusCode(err)
	case n == 0:
		resp.Message, outcome = MsgNoData, "empty"
		if isNilSlice(data) {
			resp.Data = []any{}
		}
	}

	h.observe(op, outcome, latency, n)
	log.Info("query answered",
		"operation", op,
		"query", arg,
		"outcome", outcome,
		"results", n,
		"cache_hit", hit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.events != nil && outcome != "invalid" && outcome != "error" {
		event := analytics.NewSearchEvent(op, arg)
		event.Returned = n
		event.Found = outcome == "found"
		event.LatencyMs = latency.Milliseconds()
		event.CacheHit = hit
		event.RequestID = middleware.GetRequestID(ctx)
		h.events.Track(event)
	}
	h.writeJSON(w, status, resp)
}

func (h *Handler) observe(op analytics.Operation, outcome string, latency time.Duration, n int) {
	if h.m == nil {
		return
	}
	h.m.QueriesTotal.WithLabelValues(string(op), outcome).Inc()
	if outcome == "invalid" {
		return
	}
	h.m.QueryLatency.WithLabelValues(string(op)).Observe(latency.Seconds())
	h.m.QueryResultsCount.WithLabelValues(string(op)).Observe(float64(n))
}

func isNilSlice(v any) bool {
	switch s := v.(type) {
	case nil:
		return true
	case []string:
		return s == nil
	case []ranker.RankedResult:
		return s == nil
	case []index.Entry:
		return s == nil
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}
