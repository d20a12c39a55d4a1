// Package aggregator persists snapshots of the live attempt aggregate to
// PostgreSQL so dashboard history survives restarts of the analytics
// service.
package aggregator

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

// StatsSource produces the aggregate to persist. *analytics.Aggregator
// satisfies it.
type StatsSource interface {
	Stats() analytics.AggregatedStats
}

// Store reads and writes the analytics_snapshots table.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{db: db, logger: slog.Default().With("component", "snapshot-store")}
}

// SaveSnapshot inserts stats, stamped with stats.CapturedAt or now.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) error {
	if stats.CapturedAt.IsZero() {
		stats.CapturedAt = time.Now().UTC()
	}
	body, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if _, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2)`,
		body, stats.CapturedAt,
	); err != nil {
		return fmt.Errorf("inserting snapshot: %w", err)
	}
	s.logger.Debug("snapshot saved", "attempts", stats.TotalAttempts, "learners", stats.UniqueLearners)
	return nil
}

// LatestSnapshot returns the newest snapshot, or nil when none exist.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	snaps, err := s.ListSnapshots(ctx, 1)
	if err != nil || len(snaps) == 0 {
		return nil, err
	}
	return &snaps[0], nil
}

// ListSnapshots returns up to limit snapshots, newest first. Rows that no
// longer decode are skipped.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()
	return s.decodeRows(rows)
}

func (s *Store) decodeRows(rows *sql.Rows) ([]analytics.AggregatedStats, error) {
	snaps := make([]analytics.AggregatedStats, 0)
	for rows.Next() {
		var (
			id   int64
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(body, &stats); err != nil {
			s.logger.Warn("skipping undecodable snapshot", "id", id, "error", err)
			continue
		}
		snaps = append(snaps, stats)
	}
	return snaps, rows.Err()
}

// Prune deletes snapshots captured before cutoff and returns how many went.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM analytics_snapshots WHERE captured_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Run saves a snapshot of src every interval and drops snapshots older
// than retention (0 keeps everything). When ctx ends it writes one last
// snapshot and returns nil.
func (s *Store) Run(ctx context.Context, src StatsSource, interval, retention time.Duration) error {
	s.logger.Info("snapshotting started", "interval", interval, "retention", retention)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick(ctx, src, retention)
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := s.SaveSnapshot(final, src.Stats()); err != nil {
				s.logger.Error("final snapshot failed", "error", err)
			}
			return nil
		}
	}
}

func (s *Store) tick(ctx context.Context, src StatsSource, retention time.Duration) {
	if err := s.SaveSnapshot(ctx, src.Stats()); err != nil {
		s.logger.Error("periodic snapshot failed", "error", err)
	}
	if retention <= 0 {
		return
	}
	n, err := s.Prune(ctx, time.Now().UTC().Add(-retention))
	if err != nil {
		s.logger.Error("snapshot pruning failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Info("expired snapshots pruned", "count", n)
	}
}
