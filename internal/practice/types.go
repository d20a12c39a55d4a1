// Package practice assesses a learner's attempt at a target sentence. It
// runs the alignment engine, derives feedback, blends in transcription
// confidence and records the attempt in history and analytics.
package practice

import (
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/align"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/feedback"
)

// Request is the JSON body of POST /api/v1/assess.
type Request struct {
	Target     string `json:"target"`
	Transcript string `json:"transcript"`
	// Confidence is the speech recognizer's confidence in [0, 1]. When
	// absent the final score equals the text similarity score.
	Confidence *float64 `json:"confidence,omitempty"`

	LearnerID string `json:"-"`
	RequestID string `json:"-"`
}

// Assessment is the full result of one attempt.
type Assessment struct {
	Target     string          `json:"target"`
	Transcript string          `json:"transcript"`
	Score      float64         `json:"score"`
	Confidence *float64        `json:"confidence,omitempty"`
	FinalScore float64         `json:"final_score"`
	Band       feedback.Band   `json:"band"`
	Words      []feedback.Word `json:"words"`
	Alignment  []align.Entry   `json:"alignment"`
	Summary    align.Summary   `json:"summary"`
	Missing    []string        `json:"missing_words"`
	Hints      []feedback.Hint `json:"hints"`
	CacheHit   bool            `json:"cache_hit"`
	AttemptID  int64           `json:"attempt_id,omitempty"`
}

// TextPair is the JSON body of POST /api/v1/score and /api/v1/align.
type TextPair struct {
	Target    string `json:"target"`
	Candidate string `json:"candidate"`
}

// ScoreResult is the response of POST /api/v1/score.
type ScoreResult struct {
	Score float64 `json:"score"`
}

// AlignResult is the response of POST /api/v1/align.
type AlignResult struct {
	Words   []align.Entry `json:"words"`
	Summary align.Summary `json:"summary"`
	Missing []string      `json:"missing_words"`
}
