package resilience

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

// WithTimeout bounds fn to timeout. fn sees a context that ends at the
// deadline; WithTimeout itself returns at the deadline even if fn does not.
// A deadline hit matches both apperrors.ErrTimeout and
// context.DeadlineExceeded. timeout <= 0 calls fn directly.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	bounded, cancel := context.WithTimeoutCause(ctx, timeout, apperrors.ErrTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(bounded) }()

	select {
	case err := <-done:
		return err
	case <-bounded.Done():
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: caller gave up: %w", name, err)
	}
	return fmt.Errorf("%s exceeded %v: %w: %w", name, timeout, context.Cause(bounded), context.DeadlineExceeded)
}
