package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations run in order inside one transaction. Every statement is
// idempotent so Migrate can run on every service start.
var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS pgcrypto`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		key_hash    TEXT NOT NULL UNIQUE,
		name        TEXT NOT NULL,
		rate_limit  INTEGER NOT NULL DEFAULT 60,
		is_active   BOOLEAN NOT NULL DEFAULT true,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		expires_at  TIMESTAMPTZ
	)`,
	`CREATE TABLE IF NOT EXISTS attempts (
		id          BIGSERIAL PRIMARY KEY,
		learner_id  TEXT NOT NULL,
		target      TEXT NOT NULL,
		transcript  TEXT NOT NULL,
		score       DOUBLE PRECISION NOT NULL,
		final_score DOUBLE PRECISION NOT NULL,
		alignment   JSONB NOT NULL DEFAULT '[]',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS attempts_learner_created_idx
		ON attempts (learner_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS dictionary_entries (
		word        TEXT PRIMARY KEY,
		phonetic    TEXT NOT NULL DEFAULT '',
		definition  TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS analytics_snapshots (
		id          BIGSERIAL PRIMARY KEY,
		data        JSONB NOT NULL,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates every table the platform uses.
func (c *Client) Migrate(ctx context.Context) error {
	return c.InTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range migrations {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("running migration %d: %w", i, err)
			}
		}
		return nil
	})
}
