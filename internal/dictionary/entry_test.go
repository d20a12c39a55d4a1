package dictionary

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Entry
	}{
		{
			name: "phonetic and markup",
			line: "Apple [ˈæpəl],|* noun|- fruit|= an apple a day",
			want: Entry{
				Word:       "apple",
				Phonetic:   "ˈæpəl",
				Definition: "noun\n- fruit\n   Example: an apple a day",
			},
		},
		{
			name: "no phonetic",
			line: "Cat,a small animal",
			want: Entry{Word: "cat", Definition: "a small animal"},
		},
		{
			name: "only first comma splits",
			line: "run [rʌn],to move fast, on foot",
			want: Entry{Word: "run", Phonetic: "rʌn", Definition: "to move fast, on foot"},
		},
		{
			name: "empty definition",
			line: "zebra,",
			want: Entry{Word: "zebra"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineRejects(t *testing.T) {
	_, err := ParseLine("   ")
	assert.ErrorIs(t, err, ErrEmptyLine)

	_, err = ParseLine("nocomma")
	assert.ErrorIs(t, err, ErrMalformedLine)

	_, err = ParseLine("[ˈfoʊ],definition only")
	assert.ErrorIs(t, err, ErrBadWord)

	_, err = ParseLine(strings.Repeat("a", MaxWordRunes+1) + ",too long")
	assert.ErrorIs(t, err, ErrBadWord)

	_, err = ParseLine(strings.Repeat("é", MaxWordRunes) + ",fits")
	assert.NoError(t, err)
}

func TestFormatDefinition(t *testing.T) {
	assert.Equal(t, "", FormatDefinition(""))
	assert.Equal(t, "a ➜ b", FormatDefinition("a|+b"))
	assert.Equal(t, "x\n@ y", FormatDefinition("x||@y"))
	assert.Equal(t, "one\n\ntwo", FormatDefinition("one|*  two"))
}

func TestDisplay(t *testing.T) {
	e := Entry{Word: "cat ", Phonetic: " kæt ", Definition: "animal"}
	assert.Equal(t, Entry{Word: "cat", Phonetic: "[kæt]", Definition: "animal"}, e.Display())
	assert.Equal(t, "", Entry{Word: "x"}.Display().Phonetic)
}
