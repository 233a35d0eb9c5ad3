// Package tokenizer turns raw corpus text into the two token streams the
// engine consumes: vocabulary words for the trie, frequency stores and the
// inverted index, and looser terms for corpus-wide top-K reporting.
package tokenizer

import (
	"regexp"
	"strings"
)

var (
	// stripper removes quoting and punctuation from a whitespace-separated
	// word before it is checked against the vocabulary alphabet.
	stripper = strings.NewReplacer(
		`"`, "", "“", "", "”", "", ".", "", ",", "", ":", "", "[", "", "]", "", "?", "",
	)
	termSplitter = regexp.MustCompile(`[\s,;."()\[\]{}]+`)
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "a": {}, "to": {}, "of": {}, "in": {},
	"for": {}, "is": {}, "on": {}, "that": {}, "by": {}, "this": {},
	"with": {}, "i": {}, "you": {}, "it": {},
}

// Token is a vocabulary word and its absolute offset in the document's word
// sequence.
type Token struct {
	Term     string
	Position int
}

// Words splits text on whitespace, strips quoting and punctuation, lowercases
// and keeps only words made entirely of a-z. Order is preserved.
func Words(text string) []string {
	fields := strings.Fields(text)
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.ToLower(stripper.Replace(f))
		if IsWord(w) {
			words = append(words, w)
		}
	}
	return words
}

// Tokenize returns Words(text) with positions attached.
func Tokenize(text string) []Token {
	words := Words(text)
	tokens := make([]Token, len(words))
	for i, w := range words {
		tokens[i] = Token{Term: w, Position: i}
	}
	return tokens
}

// Terms lowercases line, splits it on whitespace and common punctuation and
// drops single-character tokens and stop words.
func Terms(line string) []string {
	parts := termSplitter.Split(strings.ToLower(line), -1)
	terms := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) <= 1 || IsStopWord(p) {
			continue
		}
		terms = append(terms, p)
	}
	return terms
}

func IsStopWord(term string) bool {
	_, ok := stopWords[term]
	return ok
}

// IsWord reports whether s is non-empty and consists only of a-z.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
