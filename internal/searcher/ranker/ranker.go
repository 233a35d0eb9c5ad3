package ranker

import (
	"strings"
)

type RankedResult struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
	URL       string `json:"url"`
}

// FrequencySource is a per-document word frequency lookup.
type FrequencySource interface {
	Search(word string) (int, bool)
}

// RankDocumentsByWord ranks every document whose store holds word with a
// positive frequency, highest frequency first. Equal frequencies are ordered
// by URL ascending. limit <= 0 returns all matches.
func RankDocumentsByWord[S FrequencySource](word string, stores map[string]S, limit int) []RankedResult {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil
	}

	results := make([]RankedResult, 0, len(stores))
	for url, store := range stores {
		freq, ok := store.Search(word)
		if !ok || freq <= 0 {
			continue
		}
		results = append(results, RankedResult{Word: word, Frequency: freq, URL: url})
	}
	if len(results) == 0 {
		return nil
	}

	HeapSort(results, ranksBelow)
	reverse(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// ranksBelow orders results from worst to best. Heap sort emits that order
// and reversing it yields the reported ranking.
func ranksBelow(a, b RankedResult) bool {
	if a.Frequency != b.Frequency {
		return a.Frequency < b.Frequency
	}
	return a.URL > b.URL
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
