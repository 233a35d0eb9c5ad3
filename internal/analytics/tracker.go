package analytics

import (
	"sort"
	"strings"
	"sync"
)

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Tracker counts how often each search pattern was requested.
type Tracker struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewTracker() *Tracker {
	return &Tracker{counts: make(map[string]int64)}
}

// Record counts one search for pattern, case-insensitively.
func (t *Tracker) Record(pattern string) {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	if pattern == "" {
		return
	}
	t.mu.Lock()
	t.counts[pattern]++
	t.mu.Unlock()
}

// Top returns the n most searched patterns, most frequent first and ties in
// alphabetical order. n <= 0 returns all.
func (t *Tracker) Top(n int) []QueryCount {
	t.mu.Lock()
	defer t.mu.Unlock()
	return topN(t.counts, n)
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}
