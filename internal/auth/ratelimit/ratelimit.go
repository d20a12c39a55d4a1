// Package ratelimit implements an in-memory per-key token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config sets the default bucket. Rate is tokens per second; Burst is the
// bucket capacity. Buckets untouched for IdleTTL are evicted by Run.
type Config struct {
	Rate    float64
	Burst   int
	IdleTTL time.Duration
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// Limiter hands out one token per request per key.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

func New(cfg Config) *Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &Limiter{
		cfg:     cfg,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Allow takes a token from key's bucket. perMinute overrides the default
// refill rate when positive; the bucket capacity is always Burst.
func (l *Limiter) Allow(key string, perMinute int) bool {
	rate := l.cfg.Rate
	if perMinute > 0 {
		rate = float64(perMinute) / 60
	}
	capacity := float64(l.cfg.Burst)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: capacity - 1, lastCheck: now}
		return true
	}

	b.tokens += now.Sub(b.lastCheck).Seconds() * rate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastCheck = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter estimates how long key must wait for its next token.
func (l *Limiter) RetryAfter(key string, perMinute int) time.Duration {
	rate := l.cfg.Rate
	if perMinute > 0 {
		rate = float64(perMinute) / 60
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok || b.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - b.tokens) / rate * float64(time.Second))
}

// Reset clears key's bucket.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Evict drops buckets idle for longer than IdleTTL.
func (l *Limiter) Evict() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.cfg.IdleTTL)
	evicted := 0
	for key, b := range l.buckets {
		if b.lastCheck.Before(cutoff) {
			delete(l.buckets, key)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle buckets every IdleTTL/2 until ctx is done.
func (l *Limiter) Run(ctx context.Context) {
	ticker := time.NewTicker(l.cfg.IdleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Evict()
		}
	}
}
