package practice

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

func ptr(f float64) *float64 { return &f }

func TestValidateRequest(t *testing.T) {
	lim := Limits{MaxRunes: 20, MaxWords: 3}
	tests := []struct {
		name    string
		req     Request
		fields  []string
		tooLong bool
	}{
		{name: "valid", req: Request{Target: "hello world", Transcript: "hello"}},
		{name: "empty transcript is allowed", req: Request{Target: "hello"}},
		{name: "missing target", req: Request{Target: "  ", Transcript: "hi"}, fields: []string{"target"}},
		{name: "too many runes", req: Request{Target: "hi", Transcript: strings.Repeat("é", 21)}, fields: []string{"transcript"}, tooLong: true},
		{name: "too many words", req: Request{Target: "a b c d", Transcript: "a"}, fields: []string{"target"}, tooLong: true},
		{name: "confidence above one", req: Request{Target: "hi", Confidence: ptr(1.5)}, fields: []string{"confidence"}},
		{name: "confidence below zero", req: Request{Target: "hi", Confidence: ptr(-0.1)}, fields: []string{"confidence"}},
		{name: "confidence bounds inclusive", req: Request{Target: "hi", Confidence: ptr(1)}},
		{name: "mixed failures are invalid", req: Request{Target: "", Transcript: "a b c d"}, fields: []string{"target", "transcript"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(&tt.req, lim)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			for _, f := range tt.fields {
				assert.Contains(t, vErr.Fields, f)
			}
			assert.Len(t, vErr.Fields, len(tt.fields))
			if tt.tooLong {
				assert.ErrorIs(t, err, apperrors.ErrInputTooLong)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			}
		})
	}
}

func TestValidatePair(t *testing.T) {
	require.NoError(t, ValidatePair(&TextPair{}, Limits{MaxRunes: 5}))
	require.NoError(t, ValidatePair(&TextPair{Target: "abc", Candidate: "abcde"}, Limits{MaxRunes: 5}))

	err := ValidatePair(&TextPair{Candidate: "abcdef"}, Limits{MaxRunes: 5})
	assert.ErrorIs(t, err, apperrors.ErrInputTooLong)
	assert.Equal(t, "candidate: candidate must be at most 5 characters", err.Error())

	require.NoError(t, ValidatePair(&TextPair{Candidate: strings.Repeat("x", 1000)}, Limits{}))
}
