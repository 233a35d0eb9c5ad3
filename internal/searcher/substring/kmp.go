// Package substring counts raw, case-insensitive substring occurrences across
// untokenized corpus lines with Knuth-Morris-Pratt, and reports the most
// frequent terms of the corpus.
package substring

import "strings"

// BorderTable returns the KMP failure function of pattern: entry i is the
// length of the longest proper prefix of pattern[:i+1] that is also its
// suffix.
func BorderTable(pattern string) []int {
	border := make([]int, len(pattern))
	k := 0
	for i := 1; i < len(pattern); i++ {
		for k > 0 && pattern[i] != pattern[k] {
			k = border[k-1]
		}
		if pattern[i] == pattern[k] {
			k++
		}
		border[i] = k
	}
	return border
}

// CountInLine counts occurrences of pattern in text, overlaps included. Both
// are compared byte for byte; border must be BorderTable(pattern).
func CountInLine(text, pattern string, border []int) int {
	if pattern == "" {
		return 0
	}
	count, j := 0, 0
	for i := 0; i < len(text); i++ {
		for j > 0 && text[i] != pattern[j] {
			j = border[j-1]
		}
		if text[i] == pattern[j] {
			j++
		}
		if j == len(pattern) {
			count++
			j = border[j-1]
		}
	}
	return count
}

// Count returns the total case-insensitive occurrences of pattern across
// lines. An empty pattern matches nothing.
func Count(lines []string, pattern string) int {
	pattern = strings.ToLower(pattern)
	if pattern == "" {
		return 0
	}
	border := BorderTable(pattern)
	total := 0
	for _, line := range lines {
		total += CountInLine(strings.ToLower(line), pattern, border)
	}
	return total
}
