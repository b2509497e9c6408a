package lobby

import (
	"math/rand/v2"
	"testing"
)

func TestScramble(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	tests := []struct {
		word     string
		sameBack bool
	}{
		{"anagram", false},
		{"ab", false},
		{"aaa", true},
		{"a", true},
		{"", true},
		{"żółw", false},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := Scramble(tt.word, rng)
			if sortedRunes(got) != sortedRunes(tt.word) {
				t.Fatalf("Scramble(%q) = %q, not an anagram", tt.word, got)
			}
			if (got == tt.word) != tt.sameBack {
				t.Fatalf("Scramble(%q) = %q, sameBack want %v", tt.word, got, tt.sameBack)
			}
		})
	}
}

func TestDefaultWords(t *testing.T) {
	if len(DefaultWords) < 10 {
		t.Fatalf("word list too short: %d", len(DefaultWords))
	}
	for _, w := range DefaultWords {
		if w == "" {
			t.Fatalf("empty word in list")
		}
	}
}
