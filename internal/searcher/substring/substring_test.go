package substring

import (
	"math/rand"
	"slices"
	"strings"
	"testing"
)

func naiveCount(text, pattern string) int {
	if pattern == "" {
		return 0
	}
	n := 0
	for i := 0; i+len(pattern) <= len(text); i++ {
		if text[i:i+len(pattern)] == pattern {
			n++
		}
	}
	return n
}

func TestBorderTable(t *testing.T) {
	tests := []struct {
		pattern string
		want    []int
	}{
		{"", []int{}},
		{"a", []int{0}},
		{"aaaa", []int{0, 1, 2, 3}},
		{"abab", []int{0, 0, 1, 2}},
		{"abcabd", []int{0, 0, 0, 1, 2, 0}},
		{"aabaaab", []int{0, 1, 0, 1, 2, 2, 3}},
	}
	for _, tt := range tests {
		if got := BorderTable(tt.pattern); !slices.Equal(got, tt.want) {
			t.Errorf("BorderTable(%q) = %v, want %v", tt.pattern, got, tt.want)
		}
	}
}

func TestCount(t *testing.T) {
	lines := []string{
		"Python for Data Science",
		"Advanced python; PYTHON projects",
		"no match here",
		"aaaa",
	}
	tests := []struct {
		pattern string
		want    int
	}{
		{"python", 3},
		{"PyThOn", 3},
		{"on", 3},
		{"aa", 3},
		{"", 0},
		{"rust", 0},
		{"science projects", 0},
	}
	for _, tt := range tests {
		if got := Count(lines, tt.pattern); got != tt.want {
			t.Errorf("Count(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}

func TestCountMatchesNaive(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	gen := func(n int) string {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteByte("ab"[rng.Intn(2)])
		}
		return sb.String()
	}
	for trial := 0; trial < 300; trial++ {
		lines := []string{gen(rng.Intn(50)), gen(rng.Intn(50)), gen(rng.Intn(50))}
		pattern := gen(1 + rng.Intn(5))

		want := 0
		for _, l := range lines {
			want += naiveCount(l, pattern)
		}
		if got := Count(lines, pattern); got != want {
			t.Fatalf("Count(%v, %q) = %d, want %d", lines, pattern, got, want)
		}
	}
}

func TestTopFrequentWords(t *testing.T) {
	lines := []string{
		"The Python course for beginners",
		"Python and data science",
		"Data engineering with Python; data pipelines",
		"A course in java",
	}
	got := TopFrequentWords(lines, 3)
	want := []WordCount{{"python", 3}, {"data", 3}, {"course", 2}}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	all := TopFrequentWords(lines, 100)
	if len(all) != 8 {
		t.Fatalf("expected 8 distinct terms, got %d: %v", len(all), all)
	}
	if TopFrequentWords(lines, 0) != nil {
		t.Fatalf("k=0 should yield nil")
	}
	if len(TopFrequentWords(nil, 5)) != 0 {
		t.Fatalf("empty corpus should yield no words")
	}
}

func TestCounterIncremental(t *testing.T) {
	var c Counter
	if c.Len() != 0 || len(c.Top(3)) != 0 {
		t.Fatalf("zero Counter not empty")
	}
	c.Add("golang channels")
	c.Add("rust ownership")
	c.Add("golang generics")

	top := c.Top(2)
	want := []WordCount{{"golang", 2}, {"channels", 1}}
	if !slices.Equal(top, want) {
		t.Fatalf("Top = %v, want %v", top, want)
	}
	top[0].Count = 100
	if again := c.Top(1); again[0].Count != 2 {
		t.Fatalf("Top aliased counter state")
	}
	if c.Len() != 5 {
		t.Fatalf("Len = %d, want 5", c.Len())
	}
}

func BenchmarkCount(b *testing.B) {
	lines := make([]string, 1000)
	for i := range lines {
		lines[i] = "Distributed search engines process python queries across multiple shards"
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Count(lines, "python")
	}
}
