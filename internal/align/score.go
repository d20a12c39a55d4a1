package align

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
)

const (
	// PerfectScore is returned for identical normalized inputs, including two
	// empty ones.
	PerfectScore = 100.0
	// ZeroScore is returned when exactly one normalized input is empty.
	ZeroScore = 0.0
)

// Score returns a similarity score in [0, 100] between a target sentence and
// what the learner produced. Both strings are case-folded and trimmed, then
// compared character by character:
//
//	score = (1 - distance / max(len(target), len(candidate))) * 100
//
// rounded to two decimals with ties going to the even neighbour, so 90.625
// becomes 90.62. Lengths are counted in runes.
func Score(target, candidate string) float64 {
	s1 := []rune(textnorm.Normalize(target))
	s2 := []rune(textnorm.Normalize(candidate))

	switch {
	case len(s1) == 0 && len(s2) == 0:
		return PerfectScore
	case len(s1) == 0 || len(s2) == 0:
		return ZeroScore
	}

	distance := BuildMatrix(s1, s2).Distance()
	maxLen := max(len(s1), len(s2))

	score := (1 - float64(distance)/float64(maxLen)) * 100
	return math.Max(ZeroScore, round2(score))
}

// ScoreValues is Score for loosely typed inputs arriving from a decoding
// boundary. nil is treated as the empty string; non-textual values return an
// *InvalidInputError.
func ScoreValues(target, candidate any) (float64, error) {
	t, err := Text("target", target)
	if err != nil {
		return 0, err
	}
	c, err := Text("candidate", candidate)
	if err != nil {
		return 0, err
	}
	return Score(t, c), nil
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
