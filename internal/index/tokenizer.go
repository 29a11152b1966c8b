// Package index builds and owns the in-memory line-level inverted index over
// content documents.
package index

import (
	"strings"
	"unicode"
)

// minTokenLength drops single-rune fragments. Stopwords are kept: short
// technical terms ("it", "os", "io") matter in this corpus.
const minTokenLength = 2

// Tokenize normalizes text for matching: lowercased, split on any
// non-letter/non-digit rune, tokens shorter than two runes dropped.
// The same normalization is applied to indexed lines and to queries.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= minTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenSet returns the distinct tokens of text in first-occurrence order.
func TokenSet(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
