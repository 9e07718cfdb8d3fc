package fuzzy

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.01
}

func TestRatio(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected float64
	}{
		{"algorithm", "algoritm", 94.12},
		{"abc", "abc", 100},
		{"", "", 100},
		{"abc", "", 0},
		{"abcd", "wxyz", 0},
		{"kitten", "sitting", 61.54},
	}

	for _, tt := range tests {
		t.Run(tt.s1+"_"+tt.s2, func(t *testing.T) {
			if got := Ratio(tt.s1, tt.s2); !almostEqual(got, tt.expected) {
				t.Errorf("Ratio(%q, %q) = %.2f, expected %.2f", tt.s1, tt.s2, got, tt.expected)
			}
		})
	}
}

func TestPartialRatio(t *testing.T) {
	tests := []struct {
		s1, s2   string
		expected float64
	}{
		{"abc", "xxabcxx", 100},
		{"xxabcxx", "abc", 100},
		{"data", "the data structure", 100},
		{"", "", 100},
		{"abc", "", 0},
	}

	for _, tt := range tests {
		if got := PartialRatio(tt.s1, tt.s2); !almostEqual(got, tt.expected) {
			t.Errorf("PartialRatio(%q, %q) = %.2f, expected %.2f", tt.s1, tt.s2, got, tt.expected)
		}
	}
}

func TestTokenRatios(t *testing.T) {
	if got := TokenSortRatio("world hello", "hello world"); got != 100 {
		t.Errorf("TokenSortRatio expected 100, got %.2f", got)
	}
	if got := TokenSetRatio("hello world", "hello world again"); got != 100 {
		t.Errorf("TokenSetRatio expected 100 for subset, got %.2f", got)
	}
	if got := TokenSetRatio("", "hello"); got != 0 {
		t.Errorf("TokenSetRatio expected 0 for empty input, got %.2f", got)
	}
	if got := PartialTokenRatio("red apple", "apple pie"); got != 100 {
		t.Errorf("PartialTokenRatio expected 100 with a shared token, got %.2f", got)
	}
}

func TestWRatio(t *testing.T) {
	tests := []struct {
		name     string
		s1, s2   string
		expected float64
	}{
		{"misspelling", "algorithm", "algoritm", 94.12},
		{"trailing punctuation", "algorithm", "algoritm,", 88.89},
		{"substring of long text", "data", "the data structure", 90},
		{"empty left", "", "data", 0},
		{"empty right", "data", "", 0},
		{"identical", "complexity", "complexity", 100},
		{"shared tokens with extra words", "this is a test", "this is a new test!!!", 85.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WRatio(tt.s1, tt.s2); !almostEqual(got, tt.expected) {
				t.Errorf("WRatio(%q, %q) = %.2f, expected %.2f", tt.s1, tt.s2, got, tt.expected)
			}
		})
	}
}

func TestWRatio_Bounded(t *testing.T) {
	pairs := [][2]string{
		{"binary", "tree"},
		{"recursion", "a function that calls itself"},
		{"x", "a very long sentence that goes on and on"},
	}
	for _, p := range pairs {
		got := WRatio(p[0], p[1])
		if got < 0 || got > 100 {
			t.Errorf("WRatio(%q, %q) = %.2f out of range", p[0], p[1], got)
		}
	}
}

func TestExtractOne(t *testing.T) {
	t.Run("best choice wins", func(t *testing.T) {
		m, ok := ExtractOne("sorting", []string{"the", "soring", "list"}, WRatio)
		if !ok || m.Choice != "soring" || m.Index != 1 {
			t.Errorf("Expected soring at index 1, got %+v (ok=%v)", m, ok)
		}
	})

	t.Run("ties keep first", func(t *testing.T) {
		m, ok := ExtractOne("ab", []string{"ax", "bx"}, WRatio)
		if !ok || m.Index != 0 {
			t.Errorf("Expected first choice on tie, got %+v", m)
		}
	})

	t.Run("no choices", func(t *testing.T) {
		if _, ok := ExtractOne("ab", nil, WRatio); ok {
			t.Error("Expected ok=false for empty choices")
		}
	})

	t.Run("nil scorer defaults to WRatio", func(t *testing.T) {
		m, ok := ExtractOne("algorithm", []string{"algoritm"}, nil)
		if !ok || !almostEqual(m.Score, 94.12) {
			t.Errorf("Expected 94.12, got %+v", m)
		}
	})
}
