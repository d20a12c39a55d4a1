package align

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

// InvalidInputError reports that a caller handed the engine a value that is
// not text. It is the only failure the engine produces.
type InvalidInputError struct {
	Arg   string
	Value any
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("align: %s must be text, got %T", e.Arg, e.Value)
}

// Unwrap lets errors.Is match the platform-wide invalid input sentinel.
func (e *InvalidInputError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// Text converts a loosely typed argument into a string. nil and nil string
// pointers become "", so absent inputs behave as empty ones.
func Text(arg string, v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case *string:
		if t == nil {
			return "", nil
		}
		return *t, nil
	case []byte:
		return string(t), nil
	case []rune:
		return string(t), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		return "", &InvalidInputError{Arg: arg, Value: v}
	}
}
