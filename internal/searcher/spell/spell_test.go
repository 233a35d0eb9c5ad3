package spell

import (
	"slices"
	"testing"
)

type staticWords []string

func (s staticWords) AllWords() []string { return s }

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"python", "python", 0},
		{"pyhton", "python", 2},
		{"pythn", "python", 1},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"intention", "execution", 5},
	}
	for _, tt := range tests {
		if got := Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := Distance(tt.b, tt.a); got != tt.want {
			t.Errorf("Distance not symmetric for %q, %q", tt.a, tt.b)
		}
	}
}

func TestCorrect(t *testing.T) {
	c := New(staticWords{"java", "pandas", "python", "pytorch", "typhon"}, 3)

	got := c.Correct("Pyhton", 0)
	if len(got) != 3 || got[0] != "python" {
		t.Fatalf("Correct(Pyhton) = %v, want python first", got)
	}

	if got := c.Correct("pythn", 1); !slices.Equal(got, []string{"python"}) {
		t.Fatalf("Correct(pythn, 1) = %v", got)
	}
}

func TestCorrectTiesInStringOrder(t *testing.T) {
	c := New(staticWords{"cot", "bat", "cat", "act"}, 3)
	// cat is exact; bat and cot are both one substitution away.
	got := c.Correct("cat", 3)
	want := []string{"cat", "bat", "cot"}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCorrectEdgeCases(t *testing.T) {
	c := New(staticWords{"go"}, 0)
	if c.limit != 3 {
		t.Fatalf("default limit = %d", c.limit)
	}
	if got := c.Correct("", 3); got != nil {
		t.Fatalf("empty query = %v", got)
	}
	if got := c.Correct("rust", 5); !slices.Equal(got, []string{"go"}) {
		t.Fatalf("short vocabulary = %v", got)
	}
	if got := New(staticWords{}, 3).Correct("rust", 3); len(got) != 0 {
		t.Fatalf("empty vocabulary = %v", got)
	}
}

func BenchmarkCorrect(b *testing.B) {
	words := make(staticWords, 0, 2000)
	for i := 0; i < 2000; i++ {
		words = append(words, string(rune('a'+i%26))+"ython"+string(rune('a'+(i/26)%26)))
	}
	c := New(words, 3)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Correct("pyhton", 3)
	}
}
