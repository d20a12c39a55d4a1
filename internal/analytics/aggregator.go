package analytics

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
)

// AggregatedStats is the platform-wide view of practice activity.
type AggregatedStats struct {
	TotalAttempts     int64            `json:"total_attempts"`
	UniqueLearners    int              `json:"unique_learners"`
	CacheHits         int64            `json:"cache_hits"`
	CacheMisses       int64            `json:"cache_misses"`
	AvgScore          float64          `json:"avg_score"`
	P50Score          float64          `json:"p50_score"`
	P95Score          float64          `json:"p95_score"`
	P99Score          float64          `json:"p99_score"`
	AvgLatencyUs      float64          `json:"avg_latency_us"`
	Bands             map[string]int64 `json:"bands"`
	TopTargets        []WordCount      `json:"top_targets"`
	MostMissed        []WordCount      `json:"most_missed"`
	MostSubstituted   []WordCount      `json:"most_substituted"`
	AttemptsPerMinute float64          `json:"attempts_per_minute"`
	CapturedAt        time.Time        `json:"captured_at"`
}

type WordCount struct {
	Text  string `json:"text"`
	Count int64  `json:"count"`
}

// Aggregator folds AttemptEvents into running totals. Score samples are
// kept in a bounded window so percentiles track recent activity.
type Aggregator struct {
	mu            sync.RWMutex
	totalAttempts atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	scores        []float64
	latencySum    int64
	bands         map[string]int64
	targets       map[string]int64
	missed        map[string]int64
	substituted   map[string]int64
	learners      map[string]struct{}
	topN          int
	window        int
	startTime     time.Time
	logger        *slog.Logger
}

// NewAggregator creates an Aggregator reporting topN entries per ranking.
func NewAggregator(topN int) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		scores:      make([]float64, 0, 1024),
		bands:       make(map[string]int64),
		targets:     make(map[string]int64),
		missed:      make(map[string]int64),
		substituted: make(map[string]int64),
		learners:    make(map[string]struct{}),
		topN:        topN,
		window:      100000,
		startTime:   time.Now(),
		logger:      slog.Default().With("component", "analytics-aggregator"),
	}
}

// Consume subscribes to topic and records attempt events until ctx is
// cancelled.
func (a *Aggregator) Consume(ctx context.Context, cfg config.KafkaConfig, topic string) error {
	a.logger.Info("analytics aggregator starting", "topic", topic, "group", cfg.ConsumerGroup)
	return kafka.NewConsumer(cfg, topic, HandleEvent(a)).Start(ctx)
}

// HandleEvent decodes attempt events for a kafka.Consumer. Undecodable or
// foreign messages are logged and acknowledged so they do not block the
// partition. A typed header lets foreign events skip decoding.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		if msg.Type != "" && msg.Type != string(EventAttempt) {
			agg.logger.Debug("ignoring event", "type", msg.Type)
			return nil
		}
		event, err := kafka.DecodeJSON[AttemptEvent](msg.Value)
		if err != nil {
			agg.logger.Error("failed to decode attempt event", "offset", msg.Offset, "error", err)
			return nil
		}
		if event.Type != EventAttempt {
			agg.logger.Debug("ignoring event", "type", event.Type)
			return nil
		}
		agg.Record(event)
		return nil
	}
}

// Record adds one attempt to the running totals.
func (a *Aggregator) Record(event AttemptEvent) {
	a.totalAttempts.Add(1)
	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.scores) >= a.window {
		a.scores = a.scores[1:]
	}
	a.scores = append(a.scores, event.FinalScore)
	a.latencySum += event.LatencyUs
	if event.Band != "" {
		a.bands[event.Band]++
	}
	if event.Target != "" {
		a.targets[event.Target]++
	}
	for _, w := range event.MissedWords {
		a.missed[w]++
	}
	for _, w := range event.SubstitutedWords {
		a.substituted[w]++
	}
	if event.LearnerID != "" {
		a.learners[event.LearnerID] = struct{}{}
	}
}

// Stats returns a point-in-time copy of the aggregated view.
func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalAttempts:   a.totalAttempts.Load(),
		UniqueLearners:  len(a.learners),
		CacheHits:       a.cacheHits.Load(),
		CacheMisses:     a.cacheMisses.Load(),
		Bands:           make(map[string]int64, len(a.bands)),
		TopTargets:      topN(a.targets, a.topN),
		MostMissed:      topN(a.missed, a.topN),
		MostSubstituted: topN(a.substituted, a.topN),
		CapturedAt:      time.Now().UTC(),
	}
	for band, n := range a.bands {
		stats.Bands[band] = n
	}
	if len(a.scores) > 0 {
		sorted := slices.Clone(a.scores)
		slices.Sort(sorted)

		var sum float64
		for _, s := range sorted {
			sum += s
		}
		stats.AvgScore = round2(sum / float64(len(sorted)))
		stats.P50Score = percentile(sorted, 50)
		stats.P95Score = percentile(sorted, 95)
		stats.P99Score = percentile(sorted, 99)
	}
	if stats.TotalAttempts > 0 {
		stats.AvgLatencyUs = round2(float64(a.latencySum) / float64(stats.TotalAttempts))
	}
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.AttemptsPerMinute = round2(float64(stats.TotalAttempts) / elapsed)
	}
	return stats
}

func percentile(sorted []float64, pct int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topN returns the n highest counts. Ties are broken alphabetically so
// repeated calls return the same order.
func topN(counts map[string]int64, n int) []WordCount {
	result := make([]WordCount, 0, len(counts))
	for text, count := range counts {
		result = append(result, WordCount{Text: text, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Text < result[j].Text
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
