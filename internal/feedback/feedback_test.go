package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/align"
)

func TestColorize(t *testing.T) {
	words := Colorize(align.Align("I like cats", "I really like dogs"))
	assert.Equal(t, []Word{
		{Word: "I", Color: Green, Status: align.Correct},
		{Word: "really", Color: Red, Status: align.Insertion},
		{Word: "like", Color: Green, Status: align.Correct},
		{Word: "dogs", Color: Red, Status: align.Substitution},
	}, words)

	assert.Empty(t, Colorize(nil))
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  Band
	}{
		{100, BandGood},
		{80, BandGood},
		{79.99, BandAverage},
		{50, BandAverage},
		{49.99, BandBad},
		{0, BandBad},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.score), "BandFor(%v)", tt.score)
	}
}

func TestHintsSoundsAlike(t *testing.T) {
	hints := Hints([]align.Entry{
		{Status: align.Correct, Word: "the", Reference: "the"},
		{Status: align.Substitution, Word: "Colour,", Reference: "color"},
		{Status: align.Insertion, Word: "extra"},
		{Status: align.Substitution, Word: "dog", Reference: "cat"},
	})
	require.Len(t, hints, 2)

	assert.Equal(t, "Colour,", hints[0].Said)
	assert.Equal(t, "color", hints[0].Expected)
	assert.True(t, hints[0].SoundsAlike)
	assert.Greater(t, hints[0].Similarity, 0.8)
	assert.Contains(t, hints[0].Message, "sounds close to")

	assert.False(t, hints[1].SoundsAlike)
	assert.Equal(t, 0.0, hints[1].Similarity)
	assert.Equal(t, `expected "cat" but heard "dog"`, hints[1].Message)
}

func TestHintsSkipsPunctuationOnlyWords(t *testing.T) {
	hints := Hints([]align.Entry{{Status: align.Substitution, Word: "...", Reference: "well"}})
	assert.Empty(t, hints)
}
