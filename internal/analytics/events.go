// Package analytics collects practice attempt events, ships them through
// Kafka and aggregates them into platform-wide statistics.
package analytics

import "time"

type EventType string

const (
	EventAttempt EventType = "attempt"
)

// AttemptEvent describes one scored attempt. Word lists hold case-folded
// reference words.
type AttemptEvent struct {
	Type             EventType `json:"type"`
	LearnerID        string    `json:"learner_id,omitempty"`
	Target           string    `json:"target"`
	Score            float64   `json:"score"`
	FinalScore       float64   `json:"final_score"`
	Band             string    `json:"band"`
	Correct          int       `json:"correct"`
	Substituted      int       `json:"substituted"`
	Inserted         int       `json:"inserted"`
	Missing          int       `json:"missing"`
	MissedWords      []string  `json:"missed_words,omitempty"`
	SubstitutedWords []string  `json:"substituted_words,omitempty"`
	CacheHit         bool      `json:"cache_hit"`
	LatencyUs        int64     `json:"latency_us"`
	Timestamp        time.Time `json:"timestamp"`
	RequestID        string    `json:"request_id,omitempty"`
}
