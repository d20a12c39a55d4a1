package practice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
)

type fakeKV struct {
	mu    sync.Mutex
	data  map[string]string
	err   error
	calls atomic.Int64
}

func newFakeKV() *fakeKV { return &fakeKV{data: make(map[string]string)} }

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeKV) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
			n++
		}
	}
	return n, nil
}

func TestResultCacheGetOrCompute(t *testing.T) {
	kv := newFakeKV()
	c := NewResultCache(kv, time.Minute, nil)
	ctx := context.Background()

	computed := 0
	compute := func() (*Assessment, error) {
		computed++
		return &Assessment{Score: 42, Alignment: nil}, nil
	}

	a, hit, err := c.GetOrCompute(ctx, "assess:k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 42.0, a.Score)

	a, hit, err = c.GetOrCompute(ctx, "assess:k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 42.0, a.Score)
	assert.Equal(t, 1, computed)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestResultCacheComputeError(t *testing.T) {
	c := NewResultCache(newFakeKV(), time.Minute, nil)
	boom := errors.New("boom")
	_, _, err := c.GetOrCompute(context.Background(), "assess:k", func() (*Assessment, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestResultCacheDegradesWhenRedisFails(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Hour})
	c := NewResultCache(kv, time.Minute, breaker)

	for i := 0; i < 3; i++ {
		a, hit, err := c.GetOrCompute(context.Background(), "assess:k", func() (*Assessment, error) {
			return &Assessment{Score: 7}, nil
		})
		require.NoError(t, err)
		assert.False(t, hit)
		assert.Equal(t, 7.0, a.Score)
	}
	assert.Equal(t, resilience.StateOpen, breaker.GetState())
	assert.Equal(t, int64(2), kv.calls.Load(), "open breaker must stop calling redis")
}

func TestResultCacheMissDoesNotTripBreaker(t *testing.T) {
	breaker := resilience.NewCircuitBreaker("redis", resilience.CircuitBreakerConfig{FailureThreshold: 1})
	c := NewResultCache(newFakeKV(), time.Minute, breaker)
	_, ok := c.Get(context.Background(), "assess:absent")
	assert.False(t, ok)
	assert.Equal(t, resilience.StateClosed, breaker.GetState())
}

func TestResultCacheIgnoresCorruptEntries(t *testing.T) {
	kv := newFakeKV()
	kv.data["assess:k"] = "{not json"
	c := NewResultCache(kv, time.Minute, nil)
	_, ok := c.Get(context.Background(), "assess:k")
	assert.False(t, ok)
}

func TestResultCacheInvalidate(t *testing.T) {
	kv := newFakeKV()
	kv.data["assess:a"] = "{}"
	kv.data["assess:b"] = "{}"
	kv.data["dictionary:words"] = "x"
	c := NewResultCache(kv, time.Minute, nil)

	n, err := c.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Contains(t, kv.data, "dictionary:words")
}

func TestCacheKey(t *testing.T) {
	base := CacheKey("Hello World", "hello world", nil, false)
	assert.True(t, strings.HasPrefix(base, keyPrefix))
	assert.Equal(t, base, CacheKey("  hello world ", "hello world ", nil, false))
	assert.NotEqual(t, base, CacheKey("Hello World", "Hello world", nil, false), "transcript casing is echoed back")
	assert.NotEqual(t, base, CacheKey("Hello World", "hello world", ptr(0.5), false))
	assert.NotEqual(t, base, CacheKey("Hello World", "hello world", nil, true))
	assert.NotEqual(t, CacheKey("ab", "c", nil, false), CacheKey("a", "bc", nil, false))
}
