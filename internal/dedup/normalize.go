// Package dedup decides whether generated content duplicates anything already
// accepted, using exact, citation-range, soft and semantic checks.
package dedup

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes text for equality comparison: NFKC, lowercase,
// punctuation and symbols dropped, whitespace collapsed, trimmed.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// foldSpace lowercases and collapses whitespace without touching punctuation
func foldSpace(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// significantWords returns the distinct normalized tokens longer than 3 runes
func significantWords(normalized string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) > 3 {
			words[w] = struct{}{}
		}
	}
	return words
}
