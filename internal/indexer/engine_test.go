package indexer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/metrics"
)

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		AutocompleteLimit: 3,
		SpellcheckLimit:   3,
		TopK:              5,
		BuildWorkers:      4,
	}
}

func exampleEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(testConfig(), nil)
	docs := []corpus.Document{
		{URL: "docA", Tokens: []string{"python", "is", "fun", "python"}},
		{URL: "docB", Tokens: []string{"java", "is", "fun"}},
	}
	lines := []string{"Python is fun, python rocks", "Java is fun"}
	if _, err := e.Build(context.Background(), docs, lines); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return e
}

func TestEnginePythonJavaCorpus(t *testing.T) {
	e := exampleEngine(t)

	ranked, err := e.RankByWord("python", 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []ranker.RankedResult{{Word: "python", Frequency: 2, URL: "docA"}}
	if !slices.Equal(ranked, want) {
		t.Fatalf("RankByWord = %+v", ranked)
	}

	entries, err := e.Lookup("is")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].URL != "docA" || entries[1].URL != "docB" {
		t.Fatalf("Lookup(is) = %+v", entries)
	}
	for _, en := range entries {
		if en.Frequency != 1 || !slices.Equal(en.Positions, []int{1}) {
			t.Fatalf("entry = %+v", en)
		}
	}

	words, err := e.Autocomplete("py", 0)
	if err != nil || !slices.Contains(words, "python") {
		t.Fatalf("Autocomplete(py) = %v, %v", words, err)
	}

	fixes, err := e.Spellcheck("pyhton", 0)
	if err != nil || len(fixes) == 0 || fixes[0] != "python" {
		t.Fatalf("Spellcheck(pyhton) = %v, %v", fixes, err)
	}
}

func TestEngineQueriesAreCaseInsensitive(t *testing.T) {
	e := exampleEngine(t)
	ranked, err := e.RankByWord("PYTHON", 0)
	if err != nil || len(ranked) != 1 {
		t.Fatalf("RankByWord(PYTHON) = %+v, %v", ranked, err)
	}
	n, err := e.SubstringFrequency("PyThOn")
	if err != nil || n != 2 {
		t.Fatalf("SubstringFrequency = %d, %v", n, err)
	}
}

func TestEngineRejectsInvalidQueries(t *testing.T) {
	e := exampleEngine(t)
	for _, q := range []string{"", "py3", "two words", "c++", "naïve"} {
		if _, err := e.Autocomplete(q, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Autocomplete(%q) err = %v", q, err)
		}
		if _, err := e.Spellcheck(q, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Spellcheck(%q) err = %v", q, err)
		}
		if _, err := e.RankByWord(q, 0); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("RankByWord(%q) err = %v", q, err)
		}
		if _, err := e.Lookup(q); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("Lookup(%q) err = %v", q, err)
		}
		if _, err := e.SubstringFrequency(q); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Errorf("SubstringFrequency(%q) err = %v", q, err)
		}
	}
}

func TestEngineLookupNotFound(t *testing.T) {
	e := exampleEngine(t)
	if _, err := e.Lookup("rust"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	ranked, err := e.RankByWord("rust", 0)
	if err != nil || len(ranked) != 0 {
		t.Fatalf("RankByWord(rust) = %+v, %v", ranked, err)
	}
}

func TestEngineTopFrequentWords(t *testing.T) {
	e := exampleEngine(t)
	top := e.TopFrequentWords(0)
	if len(top) != 4 {
		t.Fatalf("top = %+v", top)
	}
	if top[0].Word != "python" || top[0].Count != 2 || top[1].Word != "fun" || top[1].Count != 2 {
		t.Fatalf("top = %+v", top)
	}
	if got := e.TopFrequentWords(1); len(got) != 1 {
		t.Fatalf("k=1 = %+v", got)
	}
}

func TestEngineBuildSkipsBadDocuments(t *testing.T) {
	e := NewEngine(testConfig(), nil)
	docs := []corpus.Document{
		{URL: "good", Tokens: []string{"golang"}},
		{URL: "bad", Tokens: []string{"golang", "C"}},
		{URL: "", Tokens: []string{"golang"}},
		{URL: "dup", Tokens: []string{"old"}},
		{URL: "dup", Tokens: []string{"new"}},
	}
	stats, err := e.Build(context.Background(), docs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Documents != 2 || stats.Skipped != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if _, err := e.Lookup("old"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("replaced duplicate still indexed")
	}
	ranked, _ := e.RankByWord("golang", 0)
	if len(ranked) != 1 || ranked[0].URL != "good" {
		t.Fatalf("rejected document has a frequency store: %+v", ranked)
	}
}

func TestEngineBuildCancelled(t *testing.T) {
	e := exampleEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Build(ctx, []corpus.Document{{URL: "x", Tokens: []string{"rust"}}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if e.Stats().Documents != 2 {
		t.Fatalf("cancelled build replaced state: %+v", e.Stats())
	}
}

func TestEngineLiveIndexing(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := NewEngine(testConfig(), m)

	doc := corpus.NewDocument("https://go.dev", "Go is simple. Go is fast")
	if err := e.IndexDocument(doc); err != nil {
		t.Fatal(err)
	}
	if err := e.IndexDocument(doc); !errors.Is(err, apperrors.ErrDocumentExists) {
		t.Fatalf("duplicate err = %v", err)
	}
	e.AddLines([]string{"Go is simple. Go is fast"})

	ranked, _ := e.RankByWord("go", 0)
	if len(ranked) != 1 || ranked[0].Frequency != 2 {
		t.Fatalf("ranked = %+v", ranked)
	}
	if n, _ := e.SubstringFrequency("go"); n != 2 {
		t.Fatalf("substring count = %d", n)
	}

	st := e.Stats()
	if st.Documents != 1 || st.Vocabulary != 4 || st.Lines != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if got := testutil.ToFloat64(m.DocsIndexedTotal); got != 1 {
		t.Fatalf("docs indexed metric = %v", got)
	}
	if got := testutil.ToFloat64(m.VocabularySize); got != 4 {
		t.Fatalf("vocabulary metric = %v", got)
	}
}

func TestEngineConcurrentReadersAndWriter(t *testing.T) {
	e := exampleEngine(t)
	var wg sync.WaitGroup
	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				e.Autocomplete("p", 0)
				e.RankByWord("fun", 0)
				e.Lookup("is")
				e.TopFrequentWords(3)
			}
		}()
	}
	for i := 0; i < 50; i++ {
		e.IndexDocument(corpus.Document{URL: fmt.Sprintf("live%d", i), Tokens: []string{"fun", "stuff"}})
		e.AddLines([]string{"fun stuff"})
	}
	wg.Wait()

	ranked, _ := e.RankByWord("fun", 0)
	if len(ranked) != 52 {
		t.Fatalf("ranked %d documents, want 52", len(ranked))
	}
}

func BenchmarkBuild(b *testing.B) {
	docs := make([]corpus.Document, 500)
	words := []string{"distributed", "search", "analytics", "platform", "indexing", "python"}
	for i := range docs {
		tokens := make([]string, 100)
		for j := range tokens {
			tokens[j] = words[(i+j)%len(words)]
		}
		docs[i] = corpus.Document{URL: fmt.Sprintf("https://doc/%d", i), Tokens: tokens}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e := NewEngine(testConfig(), nil)
		if _, err := e.Build(context.Background(), docs, nil); err != nil {
			b.Fatal(err)
		}
	}
}
