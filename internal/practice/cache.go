package practice

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
)

const keyPrefix = "assess:"

// KV is the subset of the Redis client the cache needs. *redis.Client
// satisfies it; a miss is reported with redis.Nil (see redis.IsMiss).
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) (int64, error)
}

// ResultCache memoizes assessments in Redis. Concurrent computations of
// the same key are collapsed with singleflight, and Redis failures
// degrade to recomputation.
type ResultCache struct {
	kv      KV
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewResultCache wraps kv. breaker may be nil.
func NewResultCache(kv KV, ttl time.Duration, breaker *resilience.CircuitBreaker) *ResultCache {
	return &ResultCache{
		kv:      kv,
		ttl:     ttl,
		breaker: breaker,
		logger:  slog.Default().With("component", "assessment-cache"),
	}
}

// Get returns the cached assessment for key.
func (c *ResultCache) Get(ctx context.Context, key string) (*Assessment, bool) {
	var data string
	miss := false
	err := c.guard(func() error {
		v, err := c.kv.Get(ctx, key)
		if pkgredis.IsMiss(err) {
			miss = true
			return nil
		}
		data = v
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	if miss {
		c.misses.Add(1)
		return nil, false
	}

	var a Assessment
	if err := json.Unmarshal([]byte(data), &a); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return &a, true
}

// Set stores a under key. Failures are logged and swallowed.
func (c *ResultCache) Set(ctx context.Context, key string, a *Assessment) {
	data, err := json.Marshal(a)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.guard(func() error { return c.kv.Set(ctx, key, data, c.ttl) }); err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached assessment for key or computes, stores
// and returns it. The bool reports a cache hit. The returned value is a
// copy the caller may modify.
func (c *ResultCache) GetOrCompute(ctx context.Context, key string, compute func() (*Assessment, error)) (*Assessment, bool, error) {
	if a, ok := c.Get(ctx, key); ok {
		return a, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		a, err := compute()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, a)
		return a, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := *val.(*Assessment)
	return &out, false, nil
}

// Invalidate drops every cached assessment.
func (c *ResultCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.kv.DeleteByPrefix(ctx, keyPrefix)
	if err != nil {
		return 0, fmt.Errorf("invalidating assessment cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

// Stats returns the hit and miss counts since start.
func (c *ResultCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *ResultCache) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	return c.breaker.Execute(fn)
}

// CacheKey derives the cache key of an assessment. The target is
// case-folded as the engine folds it; the transcript keeps its casing
// because aligned words echo it back.
func CacheKey(target, transcript string, confidence *float64, stripped bool) string {
	conf := "-"
	if confidence != nil {
		conf = strconv.FormatFloat(*confidence, 'f', -1, 64)
	}
	raw := strings.Join([]string{
		textnorm.Normalize(target),
		strings.TrimSpace(transcript),
		conf,
		strconv.FormatBool(stripped),
	}, "\x00")
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
