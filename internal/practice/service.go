package practice

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/align"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/feedback"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/history"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/textnorm"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/proto"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/tracing"
)

const (
	similarityWeight = 0.6
	confidenceWeight = 0.4
)

// HistoryRecorder persists attempts. *history.Store satisfies it.
type HistoryRecorder interface {
	Save(ctx context.Context, a *history.Attempt) error
}

// EventTracker receives attempt events without blocking.
// *collector.BatchCollector satisfies it.
type EventTracker interface {
	Track(e analytics.AttemptEvent)
}

// Deps are the optional collaborators of a Service. Any of them may be nil.
type Deps struct {
	Cache   *ResultCache
	History HistoryRecorder
	Events  EventTracker
	Metrics *metrics.Metrics
	Tracer  *tracing.Tracer
}

type Service struct {
	cfg    config.PracticeConfig
	deps   Deps
	retry  resilience.RetryConfig
	logger *slog.Logger
}

func NewService(cfg config.PracticeConfig, deps Deps) *Service {
	return &Service{
		cfg:  cfg,
		deps: deps,
		retry: resilience.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: 50 * time.Millisecond,
			MaxDelay:     500 * time.Millisecond,
		},
		logger: slog.Default().With("component", "practice-service"),
	}
}

func (s *Service) limits() Limits {
	return Limits{MaxRunes: s.cfg.MaxInputRunes, MaxWords: s.cfg.MaxWords}
}

// Assess scores req, aligns it word by word and derives feedback. The
// attempt is stored for known learners and published for analytics;
// neither failure fails the assessment.
func (s *Service) Assess(ctx context.Context, req Request) (*Assessment, error) {
	start := time.Now()
	if err := ValidateRequest(&req, s.limits()); err != nil {
		return nil, err
	}
	ctx, root := s.deps.Tracer.Start(ctx, "practice.assess", req.RequestID)
	defer s.deps.Tracer.Finish(root)
	root.SetAttr("learner_id", req.LearnerID)

	target, transcript := req.Target, req.Transcript
	if s.cfg.StripPunctuation {
		target = textnorm.StripPunctuation(target)
		transcript = textnorm.StripPunctuation(transcript)
	}

	compute := func() (*Assessment, error) {
		return s.evaluate(ctx, target, transcript, req.Confidence), nil
	}
	var (
		a   *Assessment
		hit bool
		err error
	)
	if s.deps.Cache != nil && s.cfg.CacheResults {
		a, hit, err = s.deps.Cache.GetOrCompute(ctx, CacheKey(target, transcript, req.Confidence, s.cfg.StripPunctuation), compute)
	} else {
		a, err = compute()
	}
	if err != nil {
		return nil, err
	}
	a.Target = req.Target
	a.Transcript = req.Transcript
	a.CacheHit = hit
	root.SetAttr("cache_hit", hit)
	root.SetAttr("final_score", a.FinalScore)

	if req.LearnerID != "" && s.deps.History != nil {
		a.AttemptID = s.record(ctx, req, a)
	}

	latency := time.Since(start)
	s.observe(a, latency)
	s.publish(ctx, req, a, latency)

	logger.FromContext(ctx).Info("attempt assessed",
		"learner_id", req.LearnerID,
		"score", a.Score,
		"final_score", a.FinalScore,
		"band", a.Band,
		"cache_hit", hit,
		"latency_us", latency.Microseconds(),
	)
	return a, nil
}

// evaluate runs the engine and the feedback stages.
func (s *Service) evaluate(ctx context.Context, target, transcript string, confidence *float64) *Assessment {
	_, span := tracing.StartChildSpan(ctx, "engine.score")
	score := align.Score(target, transcript)
	span.SetAttr("score", score)
	span.End()

	_, span = tracing.StartChildSpan(ctx, "engine.align")
	entries, trace := align.AlignTrace(target, transcript)
	summary := align.Summarize(target, entries)
	span.SetAttr("entries", len(entries))
	span.End()

	_, span = tracing.StartChildSpan(ctx, "feedback")
	final := FinalScore(score, confidence)
	a := &Assessment{
		Score:      score,
		Confidence: confidence,
		FinalScore: final,
		Band:       feedback.BandFor(final),
		Words:      feedback.Colorize(entries),
		Alignment:  entries,
		Summary:    summary,
		Missing:    trace.Skipped,
		Hints:      feedback.Hints(entries),
	}
	span.SetAttr("hints", len(a.Hints))
	span.End()

	if m := s.deps.Metrics; m != nil {
		m.AlignmentTokens.WithLabelValues("reference").Observe(float64(len(textnorm.Words(target))))
		m.AlignmentTokens.WithLabelValues("candidate").Observe(float64(len(entries)))
	}
	return a
}

// FinalScore blends the text similarity score with recognizer confidence:
// (similarity*0.6 + confidence*0.4) * 100, both on a 0-1 scale. Without a
// confidence the similarity score stands alone.
func FinalScore(score float64, confidence *float64) float64 {
	if confidence == nil {
		return score
	}
	blended := (score/100*similarityWeight + *confidence*confidenceWeight) * 100
	return math.Round(blended*100) / 100
}

// record stores the attempt and returns its ID, or 0 on failure.
func (s *Service) record(ctx context.Context, req Request, a *Assessment) int64 {
	ctx, span := tracing.StartChildSpan(ctx, "history.save")
	defer span.End()

	attempt := &history.Attempt{
		LearnerID:  req.LearnerID,
		Target:     req.Target,
		Transcript: req.Transcript,
		Score:      a.Score,
		FinalScore: a.FinalScore,
		Alignment:  a.Alignment,
	}
	err := resilience.WithTimeout(ctx, s.cfg.HistoryTimeout, "history.save", func(ctx context.Context) error {
		return resilience.Retry(ctx, "history.save", s.retry, func() error {
			return s.deps.History.Save(ctx, attempt)
		})
	})
	status := "ok"
	if err != nil {
		status = "error"
		span.SetAttr("error", err.Error())
		logger.FromContext(ctx).Warn("saving attempt failed", "learner_id", req.LearnerID, "error", err)
	}
	if m := s.deps.Metrics; m != nil {
		m.HistoryWritesTotal.WithLabelValues(status).Inc()
	}
	if err != nil {
		return 0
	}
	return attempt.ID
}

func (s *Service) observe(a *Assessment, latency time.Duration) {
	m := s.deps.Metrics
	if m == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(string(a.Band)).Inc()
	m.AssessmentScore.Observe(a.FinalScore)
	m.AssessmentLatency.Observe(latency.Seconds())
	if s.deps.Cache != nil && s.cfg.CacheResults {
		if a.CacheHit {
			m.CacheHitsTotal.Inc()
		} else {
			m.CacheMissesTotal.Inc()
		}
	}
}

func (s *Service) publish(ctx context.Context, req Request, a *Assessment, latency time.Duration) {
	if s.deps.Events == nil {
		return
	}
	var substituted []string
	for _, e := range a.Alignment {
		if e.Status == align.Substitution && e.Reference != "" {
			substituted = append(substituted, e.Reference)
		}
	}
	requestID := req.RequestID
	if requestID == "" {
		requestID = logger.RequestID(ctx)
	}
	s.deps.Events.Track(analytics.AttemptEvent{
		Type:             analytics.EventAttempt,
		LearnerID:        req.LearnerID,
		Target:           textnorm.Normalize(req.Target),
		Score:            a.Score,
		FinalScore:       a.FinalScore,
		Band:             string(a.Band),
		Correct:          a.Summary.Correct,
		Substituted:      a.Summary.Substituted,
		Inserted:         a.Summary.Inserted,
		Missing:          a.Summary.Missing,
		MissedWords:      a.Missing,
		SubstitutedWords: substituted,
		CacheHit:         a.CacheHit,
		LatencyUs:        latency.Microseconds(),
		Timestamp:        time.Now().UTC(),
		RequestID:        requestID,
	})
}

// Score is the bare engine score with input limits applied.
func (s *Service) Score(ctx context.Context, p TextPair) (*ScoreResult, error) {
	if err := ValidatePair(&p, s.limits()); err != nil {
		return nil, err
	}
	return &ScoreResult{Score: align.Score(p.Target, p.Candidate)}, nil
}

// Align is the bare engine alignment with input limits applied.
func (s *Service) Align(ctx context.Context, p TextPair) (*AlignResult, error) {
	if err := ValidatePair(&p, s.limits()); err != nil {
		return nil, err
	}
	entries, trace := align.AlignTrace(p.Target, p.Candidate)
	return &AlignResult{
		Words:   entries,
		Summary: align.Summarize(p.Target, entries),
		Missing: trace.Skipped,
	}, nil
}

// Distance is the edit distance between a and b, counted in runes or in
// whitespace-separated words. Neither input is normalized.
func (s *Service) Distance(ctx context.Context, a, b, unit string) (int, error) {
	p := TextPair{Target: a, Candidate: b}
	if err := ValidatePair(&p, s.limits()); err != nil {
		return 0, err
	}
	switch unit {
	case "", proto.UnitChars:
		return align.Distance([]rune(a), []rune(b)), nil
	case proto.UnitWords:
		return align.Distance(textnorm.Words(a), textnorm.Words(b)), nil
	default:
		return 0, &ValidationError{Fields: map[string]string{"unit": "unit must be chars or words"}}
	}
}
