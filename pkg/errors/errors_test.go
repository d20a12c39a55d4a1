package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("decoding: %w", ErrInvalidInput), http.StatusBadRequest},
		{ErrInputTooLong, http.StatusRequestEntityTooLarge},
		{ErrWordNotFound, http.StatusNotFound},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrTimeout, http.StatusServiceUnavailable},
		{ErrStoreDisabled, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{New(ErrInternal, http.StatusTeapot, "brewing"), http.StatusTeapot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), "%v", tt.err)
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := Invalid("target is required")
	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: target is required", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestPublicMessage(t *testing.T) {
	assert.Equal(t, "invalid input: bad", PublicMessage(Invalid("bad")))
	assert.Equal(t, "word not found", PublicMessage(fmt.Errorf("lookup %q: %w", "zz", ErrWordNotFound)))
	assert.Equal(t, "internal error", PublicMessage(errors.New("pq: connection refused")))
}
