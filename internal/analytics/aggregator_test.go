package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
)

func attempt(learner, target string, score float64, band string) AttemptEvent {
	return AttemptEvent{Type: EventAttempt, LearnerID: learner, Target: target, FinalScore: score, Band: band, LatencyUs: 100}
}

func TestAggregatorStats(t *testing.T) {
	agg := NewAggregator(2)
	agg.Record(attempt("a", "hello world", 100, "good"))
	agg.Record(attempt("a", "hello world", 60, "average"))
	e := attempt("b", "good morning", 20, "bad")
	e.MissedWords = []string{"morning"}
	e.SubstitutedWords = []string{"good"}
	e.CacheHit = true
	agg.Record(e)
	e2 := attempt("", "good night", 50, "average")
	e2.MissedWords = []string{"night", "morning"}
	agg.Record(e2)

	stats := agg.Stats()
	assert.Equal(t, int64(4), stats.TotalAttempts)
	assert.Equal(t, 2, stats.UniqueLearners)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(3), stats.CacheMisses)
	assert.Equal(t, 57.5, stats.AvgScore)
	assert.Equal(t, 60.0, stats.P50Score)
	assert.Equal(t, 100.0, stats.P99Score)
	assert.Equal(t, 100.0, stats.AvgLatencyUs)
	assert.Equal(t, map[string]int64{"good": 1, "average": 2, "bad": 1}, stats.Bands)
	assert.Equal(t, []WordCount{{"hello world", 2}, {"good morning", 1}}, stats.TopTargets)
	assert.Equal(t, []WordCount{{"morning", 2}, {"night", 1}}, stats.MostMissed)
	assert.Equal(t, []WordCount{{"good", 1}}, stats.MostSubstituted)
}

func TestAggregatorEmpty(t *testing.T) {
	stats := NewAggregator(0).Stats()
	assert.Zero(t, stats.TotalAttempts)
	assert.Zero(t, stats.AvgScore)
	assert.Empty(t, stats.TopTargets)
	assert.NotNil(t, stats.Bands)
}

func TestAggregatorScoreWindow(t *testing.T) {
	agg := NewAggregator(5)
	agg.window = 2
	agg.Record(attempt("a", "x", 0, "bad"))
	agg.Record(attempt("a", "x", 80, "good"))
	agg.Record(attempt("a", "x", 100, "good"))

	stats := agg.Stats()
	assert.Equal(t, int64(3), stats.TotalAttempts)
	assert.Equal(t, 90.0, stats.AvgScore)
}

func TestHandleEvent(t *testing.T) {
	agg := NewAggregator(5)
	handle := HandleEvent(agg)

	data, err := json.Marshal(attempt("a", "hello", 75, "average"))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, handle(ctx, kafka.Message{Key: []byte("a"), Value: data, Type: "attempt"}))
	require.NoError(t, handle(ctx, kafka.Message{Value: data, Type: "session"}))
	require.NoError(t, handle(ctx, kafka.Message{Value: []byte("not json")}))
	require.NoError(t, handle(ctx, kafka.Message{Value: []byte(`{"type":"other","target":"x"}`)}))

	stats := agg.Stats()
	assert.Equal(t, int64(1), stats.TotalAttempts)
	assert.Equal(t, 75.0, stats.AvgScore)
}

func TestHandlerStats(t *testing.T) {
	agg := NewAggregator(5)
	agg.Record(attempt("a", "hello", 90, "good"))
	h := NewHandler(agg)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, int64(1), got.TotalAttempts)
	assert.Equal(t, int64(1), got.Bands["good"])

	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodPost, "/api/v1/analytics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandlerStatsTop(t *testing.T) {
	agg := NewAggregator(5)
	agg.Record(attempt("a", "hello", 90, "good"))
	agg.Record(attempt("a", "world", 80, "good"))
	agg.Record(attempt("b", "world", 70, "average"))
	h := NewHandler(agg)

	rec := httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var got AggregatedStats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	require.Len(t, got.TopTargets, 1)
	assert.Equal(t, WordCount{Text: "world", Count: 2}, got.TopTargets[0])

	for _, bad := range []string{"-1", "many"} {
		rec = httptest.NewRecorder()
		h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analytics?top="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}
