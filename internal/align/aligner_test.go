package align

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
)

func TestAlign(t *testing.T) {
	tests := []struct {
		name      string
		target    string
		candidate string
		want      []Entry
	}{
		{
			name:      "exact match",
			target:    "Hello world",
			candidate: "Hello world",
			want: []Entry{
				{Status: Correct, Word: "Hello", Reference: "hello"},
				{Status: Correct, Word: "world", Reference: "world"},
			},
		},
		{
			name:      "missing word produces no entry",
			target:    "This is a test",
			candidate: "This is test",
			want: []Entry{
				{Status: Correct, Word: "This", Reference: "this"},
				{Status: Correct, Word: "is", Reference: "is"},
				{Status: Correct, Word: "test", Reference: "test"},
			},
		},
		{
			name:      "substitutions after a match",
			target:    "I like to code",
			candidate: "I love coding",
			want: []Entry{
				{Status: Correct, Word: "I", Reference: "i"},
				{Status: Substitution, Word: "love", Reference: "to"},
				{Status: Substitution, Word: "coding", Reference: "code"},
			},
		},
		{
			name:      "extra word is an insertion",
			target:    "I like cats",
			candidate: "I really like cats",
			want: []Entry{
				{Status: Correct, Word: "I", Reference: "i"},
				{Status: Insertion, Word: "really"},
				{Status: Correct, Word: "like", Reference: "like"},
				{Status: Correct, Word: "cats", Reference: "cats"},
			},
		},
		{
			name:      "candidate casing preserved",
			target:    "good morning",
			candidate: "GOOD Evening",
			want: []Entry{
				{Status: Correct, Word: "GOOD", Reference: "good"},
				{Status: Substitution, Word: "Evening", Reference: "morning"},
			},
		},
		{
			name:      "empty reference makes every word an insertion",
			target:    "   ",
			candidate: "hello there",
			want: []Entry{
				{Status: Insertion, Word: "hello"},
				{Status: Insertion, Word: "there"},
			},
		},
		{
			name:      "empty candidate",
			target:    "nothing was said",
			candidate: "",
			want:      []Entry{},
		},
		{
			name:      "both empty",
			target:    "",
			candidate: "",
			want:      []Entry{},
		},
		{
			name:      "punctuation is part of the token",
			target:    "Hello, world",
			candidate: "Hello world",
			want: []Entry{
				{Status: Substitution, Word: "Hello", Reference: "hello,"},
				{Status: Correct, Word: "world", Reference: "world"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, trace := AlignTrace(tt.target, tt.candidate)
			assert.Equal(t, tt.want, got)
			assert.Zero(t, trace.Fallbacks)
		})
	}
}

func TestAlignEmptyCandidateCountsDeletions(t *testing.T) {
	got, trace := AlignTrace("nothing was said", "")
	assert.Empty(t, got)
	assert.Equal(t, 3, trace.Deletions)
	assert.Equal(t, 3, trace.Steps)
	assert.Equal(t, []string{"nothing", "was", "said"}, trace.Skipped)
}

func TestAlignOneEntryPerCandidateWord(t *testing.T) {
	pairs := [][2]string{
		{"The quick brown fox jumps over the lazy dog", "the quick brown fox jumped over a lazy dog"},
		{"She sells seashells by the seashore", "she sells sea shells by the sea shore"},
		{"How much wood would a woodchuck chuck", "how much would would a wood chuck chuck chuck"},
		{"Peter Piper picked a peck of pickled peppers", "peter picked peppers"},
		{"I scream you scream we all scream for ice cream", "ice cream"},
		{"a b c d e", "e d c b a"},
		{"a a a", "a a a a a a"},
		{"", "x y z"},
		{"x y z", ""},
	}
	for _, p := range pairs {
		got, trace := AlignTrace(p[0], p[1])
		require.Len(t, got, len(textnorm.Words(p[1])), "align(%q, %q)", p[0], p[1])
		assert.Zero(t, trace.Fallbacks, "align(%q, %q) needed the fallback rule", p[0], p[1])
		assert.LessOrEqual(t, trace.Steps, len(textnorm.Words(p[0]))+len(textnorm.Words(p[1])))

		words := textnorm.Words(p[1])
		for i, e := range got {
			assert.Equal(t, words[i], e.Word, "entries must follow candidate order")
		}
	}
}

func TestAlignIsRepeatable(t *testing.T) {
	first := Align("How much wood would a woodchuck chuck", "how much would would a wood chuck")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Align("How much wood would a woodchuck chuck", "how much would would a wood chuck"))
	}
}

func TestBacktrackRuleOrder(t *testing.T) {
	names := make([]string, len(backtrackRules))
	for i, r := range backtrackRules {
		names[i] = r.name
	}
	assert.Equal(t, []string{"match", "substitution", "insertion", "deletion", "fallback"}, names)
}

// An inconsistent grid is the only way to reach the fallback rule; Align
// never builds one.
func TestBacktrackFallbackOnInconsistentGrid(t *testing.T) {
	grid := newGrid(2, 2)
	got, trace := backtrack(grid, []string{"a"}, []string{"B"}, []string{"b"})

	assert.Equal(t, []Entry{{Status: Insertion, Word: "B"}}, got)
	assert.Equal(t, Trace{Steps: 2, Deletions: 1, Fallbacks: 2, Skipped: []string{"a"}}, trace)
}

func TestAlignValues(t *testing.T) {
	got, err := AlignValues(nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Status: Insertion, Word: "hello"}}, got)

	_, err = AlignValues("hello", 3.14)
	var inputErr *InvalidInputError
	require.True(t, errors.As(err, &inputErr))
	assert.Equal(t, "candidate", inputErr.Arg)
}

func TestEntryJSON(t *testing.T) {
	data, err := json.Marshal([]Entry{
		{Status: Correct, Word: "I", Reference: "i"},
		{Status: Insertion, Word: "really"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"status":"correct","word":"I","reference":"i"},
		{"status":"insertion","word":"really"}
	]`, string(data))

	var back []Entry
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, Insertion, back[1].Status)

	_, err = Status(7).MarshalText()
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		target, candidate string
		want              Summary
	}{
		{"This is a test", "This is test", Summary{Correct: 3, Missing: 1}},
		{"I like to code", "I love coding", Summary{Correct: 1, Substituted: 2, Missing: 1}},
		{"I like cats", "I really like cats", Summary{Correct: 3, Inserted: 1}},
		{"", "hello", Summary{Inserted: 1}},
		{"one two", "", Summary{Missing: 2}},
	}
	for _, tt := range tests {
		got := Summarize(tt.target, Align(tt.target, tt.candidate))
		assert.Equal(t, tt.want, got, "summarize(%q, %q)", tt.target, tt.candidate)
	}
}

func TestMissingWords(t *testing.T) {
	tests := []struct {
		target, candidate string
		want              []string
	}{
		{"This is a test", "This is test", []string{"a"}},
		{"I like to code", "I love coding", []string{"like"}},
		{"the cat and the dog", "the dog", []string{"the", "cat", "and"}},
		{"a b a", "a", []string{"a", "b"}},
		{"nothing was said", "", []string{"nothing", "was", "said"}},
		{"I like cats", "I really like cats", nil},
		{"", "hello", nil},
	}
	for _, tt := range tests {
		got := MissingWords(tt.target, tt.candidate)
		assert.Equal(t, tt.want, got, "missing(%q, %q)", tt.target, tt.candidate)
		assert.Len(t, got, Summarize(tt.target, Align(tt.target, tt.candidate)).Missing)
	}
}

func ExampleAlign() {
	for _, e := range Align("I like to code", "I love coding") {
		fmt.Println(e.Status, e.Word)
	}
	// Output:
	// correct I
	// substitution love
	// substitution coding
}
