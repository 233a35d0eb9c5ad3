package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/freqstore"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/spell"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/substring"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/vocab"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/tracing"
)

// Engine owns every index structure built from the corpus and serves the
// query surface over them. Writes (Build, IndexDocument, AddLines) take an
// exclusive lock; queries share a read lock.
type Engine struct {
	mu     sync.RWMutex
	state  *state
	cfg    config.EngineConfig
	m      *metrics.Metrics
	logger *slog.Logger
}

type state struct {
	trie      *vocab.Trie
	index     *index.InvertedIndex
	stores    map[string]*freqstore.Store
	lines     []string
	terms     substring.Counter
	corrector *spell.Corrector
}

func newState(spellLimit int) *state {
	trie := vocab.New()
	return &state{
		trie:      trie,
		index:     index.New(trie),
		stores:    make(map[string]*freqstore.Store),
		corrector: spell.New(trie, spellLimit),
	}
}

// BuildStats summarizes one Build.
type BuildStats struct {
	Documents  int           `json:"documents"`
	Skipped    int           `json:"skipped"`
	Vocabulary int           `json:"vocabulary"`
	Lines      int           `json:"lines"`
	Duration   time.Duration `json:"duration"`
}

// Stats describes the engine's current contents.
type Stats struct {
	Documents  int `json:"documents"`
	Vocabulary int `json:"vocabulary"`
	Lines      int `json:"lines"`
	Terms      int `json:"terms"`
}

// NewEngine returns an empty engine. m may be nil.
func NewEngine(cfg config.EngineConfig, m *metrics.Metrics) *Engine {
	return &Engine{
		state:  newState(cfg.SpellcheckLimit),
		cfg:    cfg,
		m:      m,
		logger: slog.Default().With("component", "indexer"),
	}
}

// Build replaces the engine's contents with docs and lines. Frequency stores
// are built in parallel on up to BuildWorkers goroutines while the trie and
// inverted index are filled on the calling goroutine. A document the index
// rejects is logged and left out of every structure. Queries keep seeing the
// previous contents until the build completes.
func (e *Engine) Build(ctx context.Context, docs []corpus.Document, lines []string) (BuildStats, error) {
	start := time.Now()
	ctx, span := tracing.Start(ctx, "engine.build")
	docs = dedupe(docs, e.logger)
	next := newState(e.cfg.SpellcheckLimit)

	_, storeSpan := tracing.Start(ctx, "frequency-stores")
	stores := make([]*freqstore.Store, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.BuildWorkers))
	storesDone := make(chan error, 1)
	go func() {
		for i := range docs {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				stores[i] = buildStore(docs[i].Tokens)
				return nil
			})
		}
		storesDone <- g.Wait()
	}()

	_, indexSpan := tracing.Start(ctx, "inverted-index")
	rejected := make([]bool, len(docs))
	skipped := 0
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			break
		}
		if err := next.index.IndexDocument(doc.URL, doc.Tokens); err != nil {
			e.logger.Warn("skipping document", "url", doc.URL, "error", err)
			rejected[i] = true
			skipped++
		}
	}
	indexSpan.SetAttr("terms", next.index.TermCount())
	indexSpan.End()
	err := <-storesDone
	storeSpan.SetAttr("workers", max(1, e.cfg.BuildWorkers))
	storeSpan.End()
	if err != nil {
		return BuildStats{}, fmt.Errorf("building frequency stores: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return BuildStats{}, fmt.Errorf("build cancelled: %w", err)
	}

	for i, doc := range docs {
		if !rejected[i] {
			next.stores[doc.URL] = stores[i]
		}
	}
	_, termSpan := tracing.Start(ctx, "line-terms")
	next.lines = append([]string(nil), lines...)
	for _, line := range next.lines {
		next.terms.Add(line)
	}
	termSpan.SetAttr("lines", len(next.lines))
	termSpan.End()

	e.mu.Lock()
	e.state = next
	e.mu.Unlock()

	stats := BuildStats{
		Documents:  len(next.stores),
		Skipped:    skipped,
		Vocabulary: next.trie.Len(),
		Lines:      len(next.lines),
		Duration:   time.Since(start),
	}
	e.observeBuild(stats)
	span.SetAttr("documents", stats.Documents)
	span.End()
	span.Log(ctx, e.logger)
	e.logger.Info("engine built",
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"vocabulary", stats.Vocabulary,
		"lines", stats.Lines,
		"duration_ms", stats.Duration.Milliseconds(),
	)
	return stats, nil
}

// IndexDocument adds one document to the live engine. A URL that is already
// indexed returns an error wrapping ErrDocumentExists.
func (e *Engine) IndexDocument(doc corpus.Document) error {
	store := buildStore(doc.Tokens)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.state.index.IndexDocument(doc.URL, doc.Tokens); err != nil {
		if e.m != nil && !errors.Is(err, apperrors.ErrDocumentExists) {
			e.m.DocsSkippedTotal.Inc()
		}
		return err
	}
	e.state.stores[doc.URL] = store
	if e.m != nil {
		e.m.DocsIndexedTotal.Inc()
		e.m.VocabularySize.Set(float64(e.state.trie.Len()))
		e.m.CorpusDocuments.Set(float64(len(e.state.stores)))
	}
	e.logger.Debug("document indexed", "url", doc.URL, "tokens", len(doc.Tokens))
	return nil
}

// AddLines appends raw lines to the substring and top-K corpus.
func (e *Engine) AddLines(lines []string) {
	if len(lines) == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.lines = append(e.state.lines, lines...)
	for _, line := range lines {
		e.state.terms.Add(line)
	}
	if e.m != nil {
		e.m.CorpusLines.Set(float64(len(e.state.lines)))
	}
}

// Autocomplete returns up to limit vocabulary words starting with prefix.
// limit <= 0 uses the configured default.
func (e *Engine) Autocomplete(prefix string, limit int) ([]string, error) {
	prefix, err := normalize(prefix)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = e.cfg.AutocompleteLimit
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.trie.SuggestPrefixCompletions(prefix, limit), nil
}

// Spellcheck returns the limit vocabulary words closest to query.
func (e *Engine) Spellcheck(query string, limit int) ([]string, error) {
	query, err := normalize(query)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.corrector.Correct(query, limit), nil
}

// RankByWord ranks documents by word's frequency, highest first.
func (e *Engine) RankByWord(word string, limit int) ([]ranker.RankedResult, error) {
	word, err := normalize(word)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return ranker.RankDocumentsByWord(word, e.state.stores, limit), nil
}

// Lookup returns the positional entries for word. A word outside the
// vocabulary returns an error wrapping ErrNotFound.
func (e *Engine) Lookup(word string) ([]index.Entry, error) {
	word, err := normalize(word)
	if err != nil {
		return nil, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.index.Lookup(word)
}

// SubstringFrequency counts case-insensitive occurrences of pattern across
// the raw corpus lines.
func (e *Engine) SubstringFrequency(pattern string) (int, error) {
	pattern, err := normalize(pattern)
	if err != nil {
		return 0, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return substring.Count(e.state.lines, pattern), nil
}

// TopFrequentWords returns the k most frequent corpus terms. k <= 0 uses the
// configured default.
func (e *Engine) TopFrequentWords(k int) []substring.WordCount {
	if k <= 0 {
		k = e.cfg.TopK
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state.terms.Top(k)
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Documents:  len(e.state.stores),
		Vocabulary: e.state.trie.Len(),
		Lines:      len(e.state.lines),
		Terms:      e.state.terms.Len(),
	}
}

func (e *Engine) observeBuild(s BuildStats) {
	if e.m == nil {
		return
	}
	e.m.BuildDuration.Observe(s.Duration.Seconds())
	e.m.DocsIndexedTotal.Add(float64(s.Documents))
	e.m.DocsSkippedTotal.Add(float64(s.Skipped))
	e.m.VocabularySize.Set(float64(s.Vocabulary))
	e.m.CorpusDocuments.Set(float64(s.Documents))
	e.m.CorpusLines.Set(float64(s.Lines))
}

func buildStore(tokens []string) *freqstore.Store {
	s := freqstore.New()
	for _, t := range tokens {
		s.AddWord(t, 1)
	}
	return s
}

// dedupe keeps the last document for each URL at the position of the first.
func dedupe(docs []corpus.Document, log *slog.Logger) []corpus.Document {
	pos := make(map[string]int, len(docs))
	out := make([]corpus.Document, 0, len(docs))
	for _, d := range docs {
		if i, ok := pos[d.URL]; ok {
			log.Warn("duplicate document url, keeping latest", "url", d.URL)
			out[i] = d
			continue
		}
		pos[d.URL] = len(out)
		out = append(out, d)
	}
	return out
}

// normalize lowercases a query argument after checking it is letters only.
func normalize(s string) (string, error) {
	if s == "" {
		return "", apperrors.InvalidInput("query must not be empty")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return "", apperrors.InvalidInput("query %q must contain only letters", s)
		}
	}
	return strings.ToLower(s), nil
}
