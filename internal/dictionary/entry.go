// Package dictionary serves word lookups from PostgreSQL, prefix
// suggestions from a Redis sorted set, and the bulk importer that loads
// both from the "word [phonetic],definition" CSV export.
package dictionary

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxWordRunes bounds a dictionary headword.
const MaxWordRunes = 200

var (
	ErrEmptyLine     = errors.New("empty line")
	ErrMalformedLine = errors.New("line has no definition column")
	ErrBadWord       = errors.New("word is empty or too long")
)

// Entry is one dictionary row. Phonetic is stored bare and wrapped in
// brackets only when presented.
type Entry struct {
	Word       string `json:"word"`
	Phonetic   string `json:"phonetic"`
	Definition string `json:"definition"`
}

var phoneticRe = regexp.MustCompile(`\[(.*?)\]`)

// definitionMarkup expands the export's inline markup. Order matters: the
// two-space section marker must be replaced before the bare one.
var definitionMarkup = strings.NewReplacer(
	"|*  ", "\n\n",
	"|*", "\n\n",
	"|-", "\n- ",
	"|=", "\n   Example: ",
	"|+", " ➜ ",
	"||@", "\n@ ",
)

// FormatDefinition expands markup and trims the result.
func FormatDefinition(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(definitionMarkup.Replace(text))
}

// ParseLine parses "word [phonetic],definition". Only the first comma
// separates the columns; the word is lower-cased with the phonetic removed.
func ParseLine(line string) (Entry, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, ErrEmptyLine
	}
	wordPart, rawDef, ok := strings.Cut(line, ",")
	if !ok {
		return Entry{}, ErrMalformedLine
	}
	wordPart = strings.TrimSpace(wordPart)

	var e Entry
	if m := phoneticRe.FindStringSubmatch(wordPart); m != nil {
		e.Phonetic = m[1]
		e.Word = strings.ToLower(strings.TrimSpace(phoneticRe.ReplaceAllString(wordPart, "")))
	} else {
		e.Word = strings.ToLower(wordPart)
	}
	if e.Word == "" || utf8.RuneCountInString(e.Word) > MaxWordRunes {
		return Entry{}, ErrBadWord
	}
	e.Definition = FormatDefinition(strings.TrimSpace(rawDef))
	return e, nil
}

// Display returns a copy with the phonetic wrapped in brackets, or empty
// when there is none.
func (e Entry) Display() Entry {
	p := strings.TrimSpace(e.Phonetic)
	if p != "" {
		p = "[" + p + "]"
	}
	return Entry{Word: strings.TrimSpace(e.Word), Phonetic: p, Definition: e.Definition}
}

// NormalizeWord trims and lower-cases a lookup key or prefix.
func NormalizeWord(w string) string {
	return strings.ToLower(strings.TrimSpace(w))
}
