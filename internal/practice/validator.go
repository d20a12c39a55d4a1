package practice

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

// Limits bounds the size of engine inputs. Zero disables a limit.
type Limits struct {
	MaxRunes int
	MaxWords int
}

// ValidationError holds per-field validation failure messages. It matches
// ErrInputTooLong when any field only failed a size limit and
// ErrInvalidInput otherwise.
type ValidationError struct {
	Fields  map[string]string
	tooLong bool
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	if e.tooLong {
		return apperrors.ErrInputTooLong
	}
	return apperrors.ErrInvalidInput
}

// ValidateRequest checks an assessment request. The target is required,
// both texts must fit the limits and confidence must lie in [0, 1].
func ValidateRequest(req *Request, lim Limits) error {
	v := newValidation()
	if strings.TrimSpace(req.Target) == "" {
		v.invalid("target", "target is required")
	}
	v.size("target", req.Target, lim)
	v.size("transcript", req.Transcript, lim)
	if c := req.Confidence; c != nil && (*c < 0 || *c > 1) {
		v.invalid("confidence", "confidence must be between 0 and 1")
	}
	return v.err()
}

// ValidatePair checks the inputs of the bare score and align operations.
// Empty texts are valid there.
func ValidatePair(p *TextPair, lim Limits) error {
	v := newValidation()
	v.size("target", p.Target, lim)
	v.size("candidate", p.Candidate, lim)
	return v.err()
}

type validation struct {
	fields    map[string]string
	malformed bool
}

func newValidation() *validation {
	return &validation{fields: make(map[string]string)}
}

func (v *validation) invalid(field, msg string) {
	v.fields[field] = msg
	v.malformed = true
}

func (v *validation) size(field, value string, lim Limits) {
	if _, done := v.fields[field]; done {
		return
	}
	if lim.MaxRunes > 0 && textnorm.RuneLen(value) > lim.MaxRunes {
		v.fields[field] = fmt.Sprintf("%s must be at most %d characters", field, lim.MaxRunes)
		return
	}
	if lim.MaxWords > 0 && len(textnorm.Words(value)) > lim.MaxWords {
		v.fields[field] = fmt.Sprintf("%s must be at most %d words", field, lim.MaxWords)
	}
}

func (v *validation) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields, tooLong: !v.malformed}
}
