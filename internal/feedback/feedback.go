// Package feedback turns engine output into what a learner sees: colored
// words, a score band and sounds-alike hints for substituted words.
package feedback

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/align"
)

// Color is the display color of one candidate word.
type Color string

const (
	Green Color = "green"
	Red   Color = "red"
)

// Band buckets a 0-100 score for display.
type Band string

const (
	BandGood    Band = "good"
	BandAverage Band = "average"
	BandBad     Band = "bad"
)

const (
	goodThreshold    = 80.0
	averageThreshold = 50.0
)

// Word is one colored candidate word.
type Word struct {
	Word   string       `json:"word"`
	Color  Color        `json:"color"`
	Status align.Status `json:"status"`
}

// Colorize maps correct words to green and everything else to red, keeping
// candidate order.
func Colorize(entries []align.Entry) []Word {
	out := make([]Word, len(entries))
	for i, e := range entries {
		c := Red
		if e.Status == align.Correct {
			c = Green
		}
		out[i] = Word{Word: e.Word, Color: c, Status: e.Status}
	}
	return out
}

// BandFor returns the display band for score.
func BandFor(score float64) Band {
	switch {
	case score >= goodThreshold:
		return BandGood
	case score >= averageThreshold:
		return BandAverage
	default:
		return BandBad
	}
}

// Hint explains one substituted word.
type Hint struct {
	Said        string  `json:"said"`
	Expected    string  `json:"expected"`
	SoundsAlike bool    `json:"sounds_alike"`
	Similarity  float64 `json:"similarity"`
	Message     string  `json:"message"`
}

// Hints returns one hint per substitution, in candidate order. Two words
// sound alike when their Double Metaphone codes overlap; Similarity is the
// Jaro-Winkler score of the spellings, rounded to two decimals.
func Hints(entries []align.Entry) []Hint {
	var out []Hint
	for _, e := range entries {
		if e.Status != align.Substitution || e.Reference == "" {
			continue
		}
		said := bare(e.Word)
		expected := bare(e.Reference)
		if said == "" || expected == "" {
			continue
		}

		h := Hint{
			Said:        e.Word,
			Expected:    e.Reference,
			SoundsAlike: codesOverlap(codes(said), codes(expected)),
			Similarity:  math.Round(matchr.JaroWinkler(said, expected, false)*100) / 100,
		}
		if h.SoundsAlike {
			h.Message = fmt.Sprintf("%q sounds close to %q; listen for the difference and try again", e.Word, e.Reference)
		} else {
			h.Message = fmt.Sprintf("expected %q but heard %q", e.Reference, e.Word)
		}
		out = append(out, h)
	}
	return out
}

// bare lower-cases w and trims surrounding punctuation so "Hello," and
// "hello" produce the same phonetic code.
func bare(w string) string {
	return strings.ToLower(strings.TrimFunc(w, unicode.IsPunct))
}

func codes(word string) map[string]struct{} {
	set := make(map[string]struct{}, 2)
	p, s := matchr.DoubleMetaphone(word)
	if p != "" {
		set[p] = struct{}{}
	}
	if s != "" {
		set[s] = struct{}{}
	}
	return set
}

func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
