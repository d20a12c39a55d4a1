package dictionary

import (
	"context"
	"fmt"
	"log/slog"
)

// SortedSet is the lexicographic sorted-set subset of the Redis client.
// *redis.Client satisfies it.
type SortedSet interface {
	ZAddLex(ctx context.Context, key string, members ...string) error
	ZRangeByLex(ctx context.Context, key, min, max string, limit int64) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Suggester completes word prefixes from a sorted set whose members all
// score 0, so Redis orders them byte-wise.
type Suggester struct {
	zset         SortedSet
	key          string
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

func NewSuggester(zset SortedSet, key string, defaultLimit, maxLimit int) *Suggester {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &Suggester{
		zset:         zset,
		key:          key,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		logger:       slog.Default().With("component", "dictionary-suggester"),
	}
}

// Add indexes words. Duplicates are absorbed by the set.
func (s *Suggester) Add(ctx context.Context, words ...string) error {
	if err := s.zset.ZAddLex(ctx, s.key, words...); err != nil {
		return fmt.Errorf("indexing %d words: %w", len(words), err)
	}
	return nil
}

// Suggest returns up to limit indexed words starting with prefix, in
// lexicographic order. An empty prefix yields no suggestions.
func (s *Suggester) Suggest(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = NormalizeWord(prefix)
	if prefix == "" {
		return []string{}, nil
	}
	switch {
	case limit <= 0:
		limit = s.defaultLimit
	case limit > s.maxLimit:
		limit = s.maxLimit
	}

	words, err := s.zset.ZRangeByLex(ctx, s.key, "["+prefix, "("+prefix+"\xff", int64(limit))
	if err != nil {
		return nil, fmt.Errorf("suggesting %q: %w", prefix, err)
	}
	if words == nil {
		words = []string{}
	}
	return words, nil
}

// Size returns the number of indexed words.
func (s *Suggester) Size(ctx context.Context) (int64, error) {
	return s.zset.ZCard(ctx, s.key)
}
