// Package vocab implements the vocabulary trie: a prefix tree over lowercase
// ASCII words that hands every distinct word a stable integer ID the first
// time it is inserted. IDs start at 0 and follow first-insertion order; they
// are the key space of the inverted index.
//
// A Trie is not safe for concurrent mutation. Build it from one goroutine (or
// under an external lock); once built, any number of readers may query it.
package vocab

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/errors"
)

const alphabetSize = 26

// noID marks a node that has never terminated an inserted word.
const noID = -1

type node struct {
	children [alphabetSize]*node
	wordEnd  bool
	id       int
}

func newNode() *node {
	return &node{id: noID}
}

type Trie struct {
	root   *node
	nextID int
}

func New() *Trie {
	return &Trie{root: newNode()}
}

// Insert records word and returns its ID, assigning the next sequential ID if
// the word is new. Words must be non-empty and consist only of a-z; anything
// else returns an error wrapping ErrInvalidInput and leaves the trie untouched.
func (t *Trie) Insert(word string) (int, error) {
	if err := validate(word); err != nil {
		return noID, err
	}
	cur := t.root
	for i := 0; i < len(word); i++ {
		slot := word[i] - 'a'
		if cur.children[slot] == nil {
			cur.children[slot] = newNode()
		}
		cur = cur.children[slot]
	}
	cur.wordEnd = true
	if cur.id == noID {
		cur.id = t.nextID
		t.nextID++
	}
	return cur.id, nil
}

// Search reports whether word was inserted and, if so, its ID.
func (t *Trie) Search(word string) (int, bool) {
	n := t.find(word)
	if n == nil || !n.wordEnd {
		return noID, false
	}
	return n.id, true
}

// Len returns the number of distinct words.
func (t *Trie) Len() int {
	return t.nextID
}

// SuggestPrefixCompletions returns up to limit words starting with prefix, in
// lexicographic order. An empty prefix matches every word; an unknown or
// malformed prefix yields nothing.
func (t *Trie) SuggestPrefixCompletions(prefix string, limit int) []string {
	if limit <= 0 {
		return nil
	}
	n := t.find(prefix)
	if n == nil {
		return nil
	}
	results := make([]string, 0, min(limit, 16))
	buf := []byte(prefix)
	collect(n, buf, limit, &results)
	return results
}

// AllWords returns every word in lexicographic order.
func (t *Trie) AllWords() []string {
	results := make([]string, 0, t.nextID)
	collect(t.root, nil, t.nextID, &results)
	return results
}

// find walks prefix from the root. It returns nil for characters outside a-z
// so malformed queries resolve to "absent" instead of panicking.
func (t *Trie) find(prefix string) *node {
	cur := t.root
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c < 'a' || c > 'z' {
			return nil
		}
		cur = cur.children[c-'a']
		if cur == nil {
			return nil
		}
	}
	return cur
}

// collect appends words below n depth-first, children in letter order, until
// limit words have been gathered.
func collect(n *node, buf []byte, limit int, results *[]string) {
	if len(*results) >= limit {
		return
	}
	if n.wordEnd {
		*results = append(*results, string(buf))
	}
	for i, child := range n.children {
		if child == nil {
			continue
		}
		if len(*results) >= limit {
			return
		}
		collect(child, append(buf, byte('a'+i)), limit, results)
	}
}

func validate(word string) error {
	if word == "" {
		return apperrors.InvalidInput("empty word")
	}
	for i := 0; i < len(word); i++ {
		if c := word[i]; c < 'a' || c > 'z' {
			return fmt.Errorf("word %q: character %q at %d: %w", word, c, i, apperrors.ErrInvalidInput)
		}
	}
	return nil
}
