package align

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		candidate string
		want      float64
	}{
		{"both empty", "", "", 100.0},
		{"both whitespace", "   ", "\t\n", 100.0},
		{"empty candidate", "x", "", 0.0},
		{"empty target", "", "x", 0.0},
		{"whitespace candidate", "hello", "   ", 0.0},
		{"exact match", "Hello world", "Hello world", 100.0},
		{"case and padding ignored", "  HELLO world ", "hello WORLD", 100.0},
		{"one dropped letter", "The quick brown fox", "The quick brwn fox", 94.74},
		{"kitten sitting", "kitten", "sitting", 57.14},
		{"nothing in common", "abc", "xyz", 0.0},
		{"one of three", "abc", "abd", 66.67},
		{"unicode counted by rune", "naïve", "naive", 80.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.target, tt.candidate), 1e-9)
		})
	}
}

func TestScoreRoundsTiesToEven(t *testing.T) {
	tests := []struct {
		length, distance int
		want             float64
	}{
		{32, 3, 90.62},
		{32, 7, 78.12},
		{32, 11, 65.62},
		{32, 1, 96.88},
		{8, 1, 87.5},
		{3, 1, 66.67},
		{7, 2, 71.43},
	}
	for _, tt := range tests {
		target := strings.Repeat("a", tt.length)
		candidate := strings.Repeat("a", tt.length-tt.distance) + strings.Repeat("b", tt.distance)
		got := Score(target, candidate)
		assert.InDelta(t, tt.want, got, 1e-9, "length %d, distance %d", tt.length, tt.distance)
	}
}

func TestScoreStaysInRange(t *testing.T) {
	for _, a := range propertyCorpus {
		for _, b := range propertyCorpus {
			s := Score(a, b)
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 100.0)
		}
	}
}

func TestScoreIsRepeatable(t *testing.T) {
	target := "She sells seashells by the seashore."
	candidate := "she sell sea shells by the sea shore"
	first := Score(target, candidate)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Score(target, candidate))
	}
}

func TestScoreLongInput(t *testing.T) {
	target := strings.Repeat("peter piper picked a peck ", 20)
	assert.Equal(t, 100.0, Score(target, strings.ToUpper(target)))
}

type label string

func (l label) String() string { return string(l) }

func TestScoreValues(t *testing.T) {
	s, err := ScoreValues(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, s)

	s, err = ScoreValues("x", nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s)

	var missing *string
	s, err = ScoreValues(missing, "")
	require.NoError(t, err)
	assert.Equal(t, 100.0, s)

	s, err = ScoreValues([]byte("Hello world"), label("hello world"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, s)
}

func TestScoreValuesRejectsNonText(t *testing.T) {
	_, err := ScoreValues(42, "x")
	require.Error(t, err)

	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "target", inputErr.Arg)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, err = ScoreValues("x", []int{1})
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "candidate", inputErr.Arg)
	assert.Contains(t, err.Error(), "[]int")
}
