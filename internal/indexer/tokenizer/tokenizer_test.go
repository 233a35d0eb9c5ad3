package tokenizer

import (
	"fmt"
	"slices"
	"strings"
	"testing"
)

func TestWords(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"plain", "Python is fun", []string{"python", "is", "fun"}},
		{"punctuation stripped", `"Learn" Python: basics, [intro]?`, []string{"learn", "python", "basics", "intro"}},
		{"curly quotes", "“Data” science.", []string{"data", "science"}},
		{"digits dropped", "Python 3 web2py course", []string{"python", "course"}},
		{"hyphen dropped", "self-paced learning", []string{"learning"}},
		{"apostrophe dropped", "beginner's guide", []string{"guide"}},
		{"whitespace runs", "  go\t\tand\nrust  ", []string{"go", "and", "rust"}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Words(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("Words(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizePositionsAreAbsolute(t *testing.T) {
	tokens := Tokenize("python is fun python")
	want := []Token{{"python", 0}, {"is", 1}, {"fun", 2}, {"python", 3}}
	if !slices.Equal(tokens, want) {
		t.Fatalf("Tokenize = %v, want %v", tokens, want)
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"The Python course; for beginners.", []string{"python", "course", "beginners"}},
		{"Intro (part 2) {advanced} [x]", []string{"intro", "part", "advanced"}},
		{`A "quoted" word`, []string{"quoted", "word"}},
		{"you and I, it is", []string{}},
		{"web-development c++ 101", []string{"web-development", "c++", "101"}},
	}
	for _, tt := range tests {
		got := Terms(tt.line)
		if !slices.Equal(got, tt.want) {
			t.Errorf("Terms(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestIsWord(t *testing.T) {
	for _, s := range []string{"a", "python", "zzz"} {
		if !IsWord(s) {
			t.Errorf("IsWord(%q) = false", s)
		}
	}
	for _, s := range []string{"", "Python", "py3", "é", "two words"} {
		if IsWord(s) {
			t.Errorf("IsWord(%q) = true", s)
		}
	}
}

func TestIsStopWord(t *testing.T) {
	if !IsStopWord("the") || !IsStopWord("you") {
		t.Fatalf("expected stop words")
	}
	if IsStopWord("python") || IsStopWord("The") {
		t.Fatalf("unexpected stop word")
	}
}

var sampleTexts = map[string]string{
	"short": "The quick brown fox jumps over the lazy dog",
	"long": strings.Repeat(`Information retrieval systems form the backbone of modern search
        infrastructure. The inverted index maps each term to the documents containing it,
        along with positional information for phrase queries. `, 20),
}

func BenchmarkWords(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Words(text)
			}
		})
	}
}

func BenchmarkTermsVaryingSize(b *testing.B) {
	baseWord := "distributed search analytics platform indexing "
	for _, size := range []int{10, 100, 1000, 5000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Terms(text)
			}
		})
	}
}
