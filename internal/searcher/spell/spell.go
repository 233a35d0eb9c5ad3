// Package spell suggests vocabulary words close to a possibly misspelled query
// by Levenshtein edit distance.
package spell

import (
	"sort"
	"strings"
)

// WordSource supplies the candidate pool, typically the vocabulary trie.
type WordSource interface {
	AllWords() []string
}

type Corrector struct {
	words WordSource
	limit int
}

// New returns a corrector over words. limit is the default number of
// suggestions; values below 1 become 3.
func New(words WordSource, limit int) *Corrector {
	if limit < 1 {
		limit = 3
	}
	return &Corrector{words: words, limit: limit}
}

type candidate struct {
	word     string
	distance int
}

// Correct ranks every vocabulary word by edit distance to the lowercased
// query and returns the closest limit words, ties in string order. A limit
// below 1 uses the corrector's default.
func (c *Corrector) Correct(query string, limit int) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	if limit < 1 {
		limit = c.limit
	}

	words := c.words.AllWords()
	candidates := make([]candidate, len(words))
	for i, w := range words {
		candidates[i] = candidate{word: w, distance: Distance(query, w)}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].distance != candidates[j].distance {
			return candidates[i].distance < candidates[j].distance
		}
		return candidates[i].word < candidates[j].word
	})

	n := min(limit, len(candidates))
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].word
	}
	return out
}

// Distance is the Levenshtein distance between a and b with unit costs for
// insertion, deletion and substitution.
func Distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j-1]+cost, prev[j]+1, curr[j-1]+1)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
