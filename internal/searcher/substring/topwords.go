package substring

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/tokenizer"
)

type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Counter accumulates term counts line by line, remembering the order in
// which each term was first seen. The zero value is ready to use; it is not
// safe for concurrent use.
type Counter struct {
	index  map[string]int
	counts []WordCount
}

func (c *Counter) Add(line string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	for _, term := range tokenizer.Terms(line) {
		if i, ok := c.index[term]; ok {
			c.counts[i].Count++
			continue
		}
		c.index[term] = len(c.counts)
		c.counts = append(c.counts, WordCount{Word: term, Count: 1})
	}
}

// Len returns the number of distinct terms.
func (c *Counter) Len() int {
	return len(c.counts)
}

// Top returns the k most frequent terms, highest count first. Equal counts
// keep first-seen order.
func (c *Counter) Top(k int) []WordCount {
	if k <= 0 {
		return nil
	}
	ranked := make([]WordCount, len(c.counts))
	copy(ranked, c.counts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked[:min(k, len(ranked))]
}

// TopFrequentWords returns the k most frequent terms of lines.
func TopFrequentWords(lines []string, k int) []WordCount {
	if k <= 0 {
		return nil
	}
	var c Counter
	for _, line := range lines {
		c.Add(line)
	}
	return c.Top(k)
}
