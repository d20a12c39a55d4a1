package apikey

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source resolves raw keys. *Validator satisfies it.
type Source interface {
	Validate(ctx context.Context, rawKey string) (*KeyInfo, error)
}

type cachedKey struct {
	info    *KeyInfo
	err     error
	expires time.Time
}

// CachingValidator remembers validation results for ttl so that hot keys
// do not hit PostgreSQL on every request. Rejections are cached too; a
// revoked key stays usable for at most ttl. Infrastructure errors are
// never cached.
type CachingValidator struct {
	src   Source
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cachedKey
}

func NewCachingValidator(src Source, ttl time.Duration) *CachingValidator {
	return &CachingValidator{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedKey),
	}
}

func (c *CachingValidator) Validate(ctx context.Context, rawKey string) (*KeyInfo, error) {
	if c.ttl <= 0 {
		return c.src.Validate(ctx, rawKey)
	}
	hash := HashKey(rawKey)
	now := c.now()

	c.mu.Lock()
	e, ok := c.entries[hash]
	c.mu.Unlock()
	if ok && now.Before(e.expires) {
		if e.err == nil && e.info.Expired(now) {
			return nil, ErrExpiredKey
		}
		return e.info, e.err
	}

	v, err, _ := c.group.Do(hash, func() (any, error) {
		info, err := c.src.Validate(ctx, rawKey)
		if err == nil || errors.Is(err, ErrInvalidKey) || errors.Is(err, ErrExpiredKey) {
			c.mu.Lock()
			c.entries[hash] = cachedKey{info: info, err: err, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return info, err
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeyInfo), nil
}

// Forget drops any cached result for rawKey.
func (c *CachingValidator) Forget(rawKey string) {
	c.mu.Lock()
	delete(c.entries, HashKey(rawKey))
	c.mu.Unlock()
}

// ForgetID drops every cached result that resolved to the key with id.
func (c *CachingValidator) ForgetID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if e.info != nil && e.info.ID == id {
			delete(c.entries, k)
		}
	}
}

// Purge drops expired entries and returns how many remain.
func (c *CachingValidator) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	return len(c.entries)
}

// Run purges expired entries every ttl until ctx is done.
func (c *CachingValidator) Run(ctx context.Context) {
	if c.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Purge()
		}
	}
}
