package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(cfg Config) (*Limiter, *time.Time) {
	l := New(cfg)
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestAllowBurstThenRefill(t *testing.T) {
	l, now := newTestLimiter(Config{Rate: 2, Burst: 3})

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k", 0), "request %d", i)
	}
	assert.False(t, l.Allow("k", 0))
	assert.Equal(t, 500*time.Millisecond, l.RetryAfter("k", 0))

	*now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("k", 0))
	assert.False(t, l.Allow("k", 0))

	*now = now.Add(time.Hour)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("k", 0))
	}
	assert.False(t, l.Allow("k", 0))
}

func TestAllowPerKeyRate(t *testing.T) {
	l, now := newTestLimiter(Config{Rate: 100, Burst: 1})

	assert.True(t, l.Allow("slow", 60))
	assert.False(t, l.Allow("slow", 60))
	*now = now.Add(500 * time.Millisecond)
	assert.False(t, l.Allow("slow", 60))
	*now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("slow", 60))

	assert.True(t, l.Allow("other", 0), "keys are independent")
}

func TestResetAndEvict(t *testing.T) {
	l, now := newTestLimiter(Config{Rate: 1, Burst: 1, IdleTTL: time.Minute})

	l.Allow("a", 0)
	assert.False(t, l.Allow("a", 0))
	l.Reset("a")
	assert.True(t, l.Allow("a", 0))

	*now = now.Add(50 * time.Second)
	l.Allow("b", 0)
	*now = now.Add(20 * time.Second)
	assert.Equal(t, 1, l.Evict())
	assert.Equal(t, 1, l.Len())
}

func TestRunStopsOnCancel(t *testing.T) {
	l := New(Config{Rate: 1, Burst: 1, IdleTTL: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
