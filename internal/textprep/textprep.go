// Package textprep cleans scraped target text before it is typed. Pages
// decorate their prompt text with non-breaking spaces, hard line breaks, and
// sometimes split words into per-letter DOM nodes; typing the raw scrape
// would inject spurious mismatches into every run.
package textprep

import (
	"strings"
	"unicode"
)

// Normalize collapses whitespace and rejoins letter-by-letter DOM splits.
//
// NBSP, CR, and LF become regular spaces, runs of whitespace collapse to a
// single space, and any run of two or more consecutive single-letter tokens
// is joined into one word ("t r u t h" -> "truth"). Isolated single-letter
// words ("I", "a") are kept as-is.
func Normalize(s string) string {
	s = strings.NewReplacer(" ", " ", "\n", " ", "\r", " ").Replace(s)
	tokens := strings.Fields(s)

	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		if !isSingleLetter(tokens[i]) {
			out = append(out, tokens[i])
			i++
			continue
		}
		j := i
		for j < len(tokens) && isSingleLetter(tokens[j]) {
			j++
		}
		if j-i >= 2 {
			out = append(out, strings.Join(tokens[i:j], ""))
		} else {
			out = append(out, tokens[i])
		}
		i = j
	}
	return strings.Join(out, " ")
}

func isSingleLetter(tok string) bool {
	runes := []rune(tok)
	return len(runes) == 1 && unicode.IsLetter(runes[0])
}
