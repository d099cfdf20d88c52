// Package textnorm canonicalizes free text so keyword and vector matching
// ignore case and diacritics.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, decomposes it (NFKD), drops combining marks and
// trims surrounding whitespace. Inner whitespace and punctuation are kept.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	// A transform.Chain is stateful, so each call builds its own.
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, _ := transform.String(stripMarks, strings.ToLower(s))
	// Compatibility decomposition can surface capitals (e.g. modifier letters).
	return strings.TrimSpace(strings.ToLower(out))
}

// Tokens splits already normalized text into terms: maximal runs of letters,
// digits and underscores. Terms shorter than two runes are dropped.
func Tokens(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < 2 {
			continue
		}
		out = append(out, f)
	}
	return out
}
