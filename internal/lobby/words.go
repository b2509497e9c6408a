package lobby

import (
	_ "embed"
	"math/rand/v2"
	"strings"
)

//go:embed words.txt
var wordList string

// DefaultWords is the built-in anagram dictionary.
var DefaultWords = loadWords(wordList)

func loadWords(raw string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		if w := strings.TrimSpace(line); w != "" {
			out = append(out, w)
		}
	}
	return out
}

// Scramble shuffles the letters of word. When the word has at least two
// distinct letters the result differs from the input.
func Scramble(word string, rng *rand.Rand) string {
	letters := []rune(word)
	if !hasDistinct(letters) {
		return word
	}
	for {
		rng.Shuffle(len(letters), func(i, j int) { letters[i], letters[j] = letters[j], letters[i] })
		if s := string(letters); s != word {
			return s
		}
	}
}

func hasDistinct(letters []rune) bool {
	for _, r := range letters[min(1, len(letters)):] {
		if r != letters[0] {
			return true
		}
	}
	return false
}
