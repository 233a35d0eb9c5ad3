// Package index implements the positional inverted index. Words are resolved
// to vocabulary IDs through a shared trie; each ID maps to the list of
// documents containing the word with per-document frequency and positions.
package index

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/vocab"
	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
)

// InvertedIndex is not safe for concurrent mutation; callers serialize
// IndexDocument and may read concurrently once writes stop.
type InvertedIndex struct {
	vocab    *vocab.Trie
	postings map[int][]*Entry
	entries  map[entryKey]*Entry
	urls     map[string]struct{}
}

// New returns an index that assigns IDs through v. A nil v gets a fresh trie.
func New(v *vocab.Trie) *InvertedIndex {
	if v == nil {
		v = vocab.New()
	}
	return &InvertedIndex{
		vocab:    v,
		postings: make(map[int][]*Entry),
		entries:  make(map[entryKey]*Entry),
		urls:     make(map[string]struct{}),
	}
}

// IndexDocument records every token of url at its offset in tokens. The whole
// document is rejected, leaving the index untouched, if any token is not a
// vocabulary word or url was already indexed.
func (ix *InvertedIndex) IndexDocument(url string, tokens []string) error {
	if url == "" {
		return apperrors.InvalidInput("empty document url")
	}
	if _, dup := ix.urls[url]; dup {
		return fmt.Errorf("document %s: %w", url, apperrors.ErrDocumentExists)
	}
	for i, tok := range tokens {
		if !tokenizer.IsWord(tok) {
			return fmt.Errorf("document %s token %d %q: %w", url, i, tok, apperrors.ErrInvalidInput)
		}
	}

	for pos, tok := range tokens {
		id, err := ix.vocab.Insert(tok)
		if err != nil {
			return fmt.Errorf("document %s: %w", url, err)
		}
		key := entryKey{id: id, url: url}
		if e, ok := ix.entries[key]; ok {
			e.Frequency++
			e.Positions = append(e.Positions, pos)
			continue
		}
		e := &Entry{URL: url, Frequency: 1, Positions: []int{pos}}
		ix.entries[key] = e
		ix.postings[id] = append(ix.postings[id], e)
	}
	ix.urls[url] = struct{}{}
	return nil
}

// Lookup returns copies of the entries for word ordered by URL. A word that
// was never indexed returns an error wrapping ErrNotFound; malformed input
// wraps ErrInvalidInput.
func (ix *InvertedIndex) Lookup(word string) ([]Entry, error) {
	if !tokenizer.IsWord(word) {
		return nil, apperrors.InvalidInput("word %q must contain only letters a-z", word)
	}
	id, ok := ix.vocab.Search(word)
	if !ok {
		return nil, fmt.Errorf("word %q: %w", word, apperrors.ErrNotFound)
	}
	list := ix.postings[id]
	out := make([]Entry, len(list))
	for i, e := range list {
		out[i] = e.clone()
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].URL < out[j].URL
	})
	return out, nil
}

// Vocabulary returns the trie the index assigns IDs through.
func (ix *InvertedIndex) Vocabulary() *vocab.Trie {
	return ix.vocab
}

// TermCount returns the number of distinct words with postings.
func (ix *InvertedIndex) TermCount() int {
	return len(ix.postings)
}

// DocCount returns the number of documents indexed.
func (ix *InvertedIndex) DocCount() int {
	return len(ix.urls)
}
