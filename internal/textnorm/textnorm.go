// Package textnorm holds the text normalisation shared by scoring, alignment
// and the practice service. Normalisation is deliberately shallow: case
// folding, whitespace trimming and whitespace splitting. Punctuation removal
// is opt-in because the engine compares raw whitespace-delimited tokens.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// IsSpace reports whether r separates words. On top of unicode.IsSpace it
// accepts the information separators U+001C to U+001F, which Python's
// str.split also treats as whitespace.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// Lower applies the full Unicode lower-case mapping: 'İ' becomes "i̇" and a
// word-final 'Σ' becomes 'ς'.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Normalize case-folds s and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimFunc(Lower(s), IsSpace)
}

// Words splits s on runs of whitespace. Leading and trailing whitespace
// never produce empty words.
func Words(s string) []string {
	return strings.FieldsFunc(s, IsSpace)
}

// Fold returns a lower-cased copy of words, leaving the input untouched.
func Fold(words []string) []string {
	lower := cases.Lower(language.Und)
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = lower.String(w)
	}
	return out
}

// StripPunctuation removes Unicode punctuation from s, then lower-cases and
// trims it. "Hello, World! This is: a test." becomes
// "hello world this is a test".
func StripPunctuation(s string) string {
	if s == "" {
		return ""
	}
	clean := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return r
	}, s)
	return Normalize(clean)
}

// RuneLen returns the number of characters the scorer will see in s.
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// IsStopWord reports whether the case-folded word is a function word that
// carries little pronunciation signal on its own.
func IsStopWord(word string) bool {
	_, ok := stopWords[Lower(word)]
	return ok
}

// ContentWords returns the case-folded words of s with stop words and
// single-letter words removed, in their original order.
func ContentWords(s string) []string {
	words := Words(Normalize(s))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 || IsStopWord(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
