// Package history stores scored practice attempts per learner in PostgreSQL
// and serves them back as a newest-first list plus summary statistics.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/align"
	apperrors "github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/postgres"
)

const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Attempt is one stored assessment.
type Attempt struct {
	ID         int64         `json:"id"`
	LearnerID  string        `json:"learner_id"`
	Target     string        `json:"target"`
	Transcript string        `json:"transcript"`
	Score      float64       `json:"score"`
	FinalScore float64       `json:"final_score"`
	Alignment  []align.Entry `json:"alignment"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Stats summarizes a learner's final scores. All fields are zero when the
// learner has no attempts.
type Stats struct {
	TotalSessions int64   `json:"total_sessions"`
	AverageScore  float64 `json:"average_score"`
	BestScore     float64 `json:"best_score"`
	LowestScore   float64 `json:"lowest_score"`
}

// Store reads and writes the attempts table created by postgres.Migrate.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func NewStore(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "history-store"),
	}
}

// Save inserts a and fills in its ID and CreatedAt.
func (s *Store) Save(ctx context.Context, a *Attempt) error {
	if strings.TrimSpace(a.LearnerID) == "" {
		return apperrors.Invalid("learner id is required")
	}
	alignment := a.Alignment
	if alignment == nil {
		alignment = []align.Entry{}
	}
	data, err := json.Marshal(alignment)
	if err != nil {
		return fmt.Errorf("marshaling alignment: %w", err)
	}

	err = s.db.DB.QueryRowContext(ctx,
		`INSERT INTO attempts (learner_id, target, transcript, score, final_score, alignment)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.LearnerID, a.Target, a.Transcript, a.Score, a.FinalScore, data,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving attempt: %w", err)
	}
	s.logger.Debug("attempt saved", "attempt_id", a.ID, "learner_id", a.LearnerID)
	return nil
}

// List returns up to limit attempts for learnerID, newest first. A limit
// outside (0, MaxLimit] falls back to DefaultLimit or is capped.
func (s *Store) List(ctx context.Context, learnerID string, limit int) ([]Attempt, error) {
	limit = ClampLimit(limit)
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT id, learner_id, target, transcript, score, final_score, alignment, created_at
		 FROM attempts
		 WHERE learner_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		learnerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]Attempt, 0)
	for rows.Next() {
		var a Attempt
		var data []byte
		if err := rows.Scan(&a.ID, &a.LearnerID, &a.Target, &a.Transcript, &a.Score, &a.FinalScore, &data, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning attempt row: %w", err)
		}
		if err := json.Unmarshal(data, &a.Alignment); err != nil {
			s.logger.Warn("corrupt alignment in attempt", "attempt_id", a.ID, "error", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// Stats computes the summary of learnerID's final scores, rounded to two
// decimals.
func (s *Store) Stats(ctx context.Context, learnerID string) (Stats, error) {
	var st Stats
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(AVG(final_score), 0),
		        COALESCE(MAX(final_score), 0),
		        COALESCE(MIN(final_score), 0)
		 FROM attempts
		 WHERE learner_id = $1`,
		learnerID,
	).Scan(&st.TotalSessions, &st.AverageScore, &st.BestScore, &st.LowestScore)
	if err != nil {
		return Stats{}, fmt.Errorf("computing attempt stats: %w", err)
	}
	st.AverageScore = round2(st.AverageScore)
	st.BestScore = round2(st.BestScore)
	st.LowestScore = round2(st.LowestScore)
	return st, nil
}

// Clear deletes every attempt of learnerID and reports how many rows went.
func (s *Store) Clear(ctx context.Context, learnerID string) (int64, error) {
	res, err := s.db.DB.ExecContext(ctx, `DELETE FROM attempts WHERE learner_id = $1`, learnerID)
	if err != nil {
		return 0, fmt.Errorf("clearing attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared attempts: %w", err)
	}
	s.logger.Info("history cleared", "learner_id", learnerID, "deleted", n)
	return n, nil
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
