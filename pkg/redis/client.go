// Package redis is the go-redis/v9 client behind the assessment result
// cache and the dictionary's prefix-suggestion index.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
)

// scanBatch is the SCAN page size and the number of keys per UNLINK.
const scanBatch = 200

// Client is a pooled connection to one Redis database.
type Client struct {
	rdb *redis.Client
}

// NewClient connects and fails unless Redis answers a PING within five
// seconds.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	c := &Client{rdb: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", cfg.Addr, err)
	}
	return c, nil
}

// Get returns the value at key. A missing key yields an error for which
// IsMiss is true.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set writes value with an expiry; ttl <= 0 keeps it forever.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// DeleteByPrefix removes every key starting with prefix and returns how
// many were removed. Keys are found with SCAN and freed with UNLINK in
// batches, so large keyspaces never block the server.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var removed int64
	batch := make([]string, 0, scanBatch)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Unlink(ctx, batch...).Result()
		removed += n
		batch = batch[:0]
		return err
	}

	iter := c.rdb.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("unlinking %q keys: %w", prefix, err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scanning %q keys: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("unlinking %q keys: %w", prefix, err)
	}
	return removed, nil
}

// ZAddLex inserts members with score 0, so the set orders them byte-wise
// for ZRangeByLex.
func (c *Client) ZAddLex(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	zs := make([]redis.Z, 0, len(members))
	for _, m := range members {
		zs = append(zs, redis.Z{Member: m})
	}
	return c.rdb.ZAdd(ctx, key, zs...).Err()
}

// ZRangeByLex returns up to limit members between the lex bounds min and
// max, written as "[word", "(word", "-" or "+".
func (c *Client) ZRangeByLex(ctx context.Context, key, min, max string, limit int64) ([]string, error) {
	return c.rdb.ZRangeByLex(ctx, key, &redis.ZRangeBy{Min: min, Max: max, Count: limit}).Result()
}

// ZCard counts the members of the set at key.
func (c *Client) ZCard(ctx context.Context, key string) (int64, error) {
	return c.rdb.ZCard(ctx, key).Result()
}

// IsMiss reports whether err means the key does not exist.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
