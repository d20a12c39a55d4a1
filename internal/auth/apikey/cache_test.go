package apikey

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
	keys  map[string]*KeyInfo
	err   error
}

func (f *fakeSource) Validate(_ context.Context, raw string) (*KeyInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	info, ok := f.keys[raw]
	if !ok {
		return nil, ErrInvalidKey
	}
	return info, nil
}

func TestCachingValidator(t *testing.T) {
	src := &fakeSource{keys: map[string]*KeyInfo{"good": {ID: "k1", RateLimit: 60}}}
	c := NewCachingValidator(src, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		info, err := c.Validate(ctx, "good")
		require.NoError(t, err)
		assert.Equal(t, "k1", info.ID)
	}
	assert.Equal(t, 1, src.calls)

	_, err := c.Validate(ctx, "bad")
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = c.Validate(ctx, "bad")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Equal(t, 2, src.calls)

	now = now.Add(2 * time.Minute)
	_, err = c.Validate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)

	c.Forget("good")
	_, err = c.Validate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, 4, src.calls)
}

func TestCachingValidatorForgetID(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{keys: map[string]*KeyInfo{"good": {ID: "k1", RateLimit: 60}}}
	c := NewCachingValidator(src, time.Minute)

	info, err := c.Validate(ctx, "good")
	require.NoError(t, err)
	c.ForgetID("someone-else")
	_, err = c.Validate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, 1, src.calls)

	c.ForgetID(info.ID)
	_, err = c.Validate(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachingValidatorHonoursExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	expires := now.Add(30 * time.Second)
	src := &fakeSource{keys: map[string]*KeyInfo{"k": {ID: "k1", ExpiresAt: &expires}}}
	c := NewCachingValidator(src, time.Hour)
	c.now = func() time.Time { return now }

	_, err := c.Validate(context.Background(), "k")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = c.Validate(context.Background(), "k")
	assert.ErrorIs(t, err, ErrExpiredKey)
	assert.Equal(t, 1, src.calls)
}

func TestCachingValidatorSkipsInfrastructureErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("connection reset")}
	c := NewCachingValidator(src, time.Minute)

	_, err := c.Validate(context.Background(), "k")
	require.Error(t, err)
	_, err = c.Validate(context.Background(), "k")
	require.Error(t, err)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, 0, c.Purge())
}

func TestCachingValidatorPurge(t *testing.T) {
	src := &fakeSource{keys: map[string]*KeyInfo{"a": {ID: "a"}, "b": {ID: "b"}}}
	c := NewCachingValidator(src, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	c.now = func() time.Time { return now }

	_, _ = c.Validate(context.Background(), "a")
	now = now.Add(45 * time.Second)
	_, _ = c.Validate(context.Background(), "b")
	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, c.Purge())
}

func TestRequestLearner(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, RequestLearner(req))

	req.Header.Set(LearnerHeader, " learner-1 ")
	assert.Equal(t, "learner-1", RequestLearner(req))

	req = req.WithContext(WithKeyInfo(req.Context(), &KeyInfo{ID: "key-1"}))
	assert.Equal(t, "key-1", RequestLearner(req))
	assert.Equal(t, "key-1", LearnerID(req.Context()))
}
