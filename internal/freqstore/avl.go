// Package freqstore holds the per-document word frequency store: an AVL tree
// keyed by word (byte-wise lexicographic order) whose nodes carry the
// cumulative occurrence count of that word in one document.
//
// Each document owns its own Store, so stores for different documents can be
// built in parallel without coordination. A single Store is not safe for
// concurrent mutation.
package freqstore

import (
	"log/slog"
	"strings"
)

type node struct {
	word      string
	frequency int
	height    int
	left      *node
	right     *node
}

type Store struct {
	root *node
	size int
}

func New() *Store {
	return &Store{}
}

// AddWord adds frequency occurrences of word. An existing word only has its
// count raised; a new word is inserted and the tree rebalanced on the way
// back up. Blank words and non-positive frequencies are ignored.
func (s *Store) AddWord(word string, frequency int) {
	if strings.TrimSpace(word) == "" {
		slog.Debug("ignoring blank word", "component", "freqstore")
		return
	}
	if frequency <= 0 {
		slog.Debug("ignoring non-positive frequency", "component", "freqstore", "word", word, "frequency", frequency)
		return
	}
	if n := s.find(word); n != nil {
		n.frequency += frequency
		return
	}
	s.root = insert(s.root, word, frequency)
	s.size++
}

// Search returns the stored frequency of word.
func (s *Store) Search(word string) (int, bool) {
	n := s.find(word)
	if n == nil {
		return 0, false
	}
	return n.frequency, true
}

// Len returns the number of distinct words.
func (s *Store) Len() int {
	return s.size
}

// Height returns the height of the tree; 0 when empty.
func (s *Store) Height() int {
	return height(s.root)
}

// InOrder calls fn for every word in ascending order until fn returns false.
func (s *Store) InOrder(fn func(word string, frequency int) bool) {
	walk(s.root, fn)
}

func (s *Store) find(word string) *node {
	cur := s.root
	for cur != nil {
		switch {
		case word < cur.word:
			cur = cur.left
		case word > cur.word:
			cur = cur.right
		default:
			return cur
		}
	}
	return nil
}

// insert places a word known to be absent below n and returns the new
// subtree root.
func insert(n *node, word string, frequency int) *node {
	if n == nil {
		return &node{word: word, frequency: frequency, height: 1}
	}
	if word < n.word {
		n.left = insert(n.left, word, frequency)
	} else {
		n.right = insert(n.right, word, frequency)
	}
	fixHeight(n)

	switch balance := balanceFactor(n); {
	case balance > 1 && word < n.left.word:
		return rotateRight(n)
	case balance < -1 && word > n.right.word:
		return rotateLeft(n)
	case balance > 1:
		n.left = rotateLeft(n.left)
		return rotateRight(n)
	case balance < -1:
		n.right = rotateRight(n.right)
		return rotateLeft(n)
	}
	return n
}

func rotateRight(pivot *node) *node {
	l := pivot.left
	pivot.left = l.right
	l.right = pivot
	fixHeight(pivot)
	fixHeight(l)
	return l
}

func rotateLeft(pivot *node) *node {
	r := pivot.right
	pivot.right = r.left
	r.left = pivot
	fixHeight(pivot)
	fixHeight(r)
	return r
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func fixHeight(n *node) {
	n.height = 1 + max(height(n.left), height(n.right))
}

func balanceFactor(n *node) int {
	return height(n.left) - height(n.right)
}

func walk(n *node, fn func(string, int) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, fn) && fn(n.word, n.frequency) && walk(n.right, fn)
}
