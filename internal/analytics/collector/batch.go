// Package collector ships attempt events to Kafka in batches without ever
// blocking the request path. Events are buffered in a bounded channel and
// flushed when a batch fills or the flush interval elapses.
package collector

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
)

// Publisher writes a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Config tunes buffering. Zero values take defaults.
type Config struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	// OnDrop is called once per event dropped because the buffer is full or
	// a failed batch overflowed the retry backlog.
	OnDrop func()
	// Breaker, when set, guards publishing so a dead broker is not hammered.
	Breaker *resilience.CircuitBreaker
}

// BatchCollector accumulates attempt events and flushes them to Kafka
// either when the batch reaches BatchSize or after FlushInterval.
type BatchCollector struct {
	publisher Publisher
	cfg       Config
	events    chan analytics.AttemptEvent
	backlog   []kafka.Event
	dropped   atomic.Int64
	published atomic.Int64
	logger    *slog.Logger
	stop      chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// New creates a BatchCollector. Call Start before Track.
func New(publisher Publisher, cfg Config) *BatchCollector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	return &BatchCollector{
		publisher: publisher,
		cfg:       cfg,
		events:    make(chan analytics.AttemptEvent, cfg.BufferSize),
		backlog:   make([]kafka.Event, 0, cfg.BatchSize),
		logger:    slog.Default().With("component", "attempt-collector"),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the background flush loop. It returns immediately; the
// loop runs until ctx is cancelled or Close is called.
func (bc *BatchCollector) Start(ctx context.Context) {
	go bc.run(ctx)
	bc.logger.Info("attempt collector started",
		"buffer_size", bc.cfg.BufferSize,
		"batch_size", bc.cfg.BatchSize,
		"flush_interval", bc.cfg.FlushInterval,
	)
}

func (bc *BatchCollector) run(ctx context.Context) {
	defer close(bc.done)
	ticker := time.NewTicker(bc.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-bc.events:
			bc.backlog = append(bc.backlog, toKafkaEvent(e))
			if len(bc.backlog) >= bc.cfg.BatchSize {
				bc.flush(ctx)
			}
		case <-ticker.C:
			bc.flush(ctx)
		case <-ctx.Done():
			bc.shutdown()
			return
		case <-bc.stop:
			bc.shutdown()
			return
		}
	}
}

// shutdown drains whatever is buffered and makes one last flush attempt.
func (bc *BatchCollector) shutdown() {
	for {
		select {
		case e := <-bc.events:
			bc.backlog = append(bc.backlog, toKafkaEvent(e))
		default:
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			bc.flush(flushCtx)
			cancel()
			return
		}
	}
}

// Track enqueues an event. It never blocks; when the buffer is full the
// event is dropped and counted.
func (bc *BatchCollector) Track(e analytics.AttemptEvent) {
	select {
	case bc.events <- e:
	default:
		bc.drop(1)
		bc.logger.Warn("attempt event dropped (buffer full)")
	}
}

// Close stops the flush loop after a final flush and waits for it.
func (bc *BatchCollector) Close() {
	bc.stopOnce.Do(func() { close(bc.stop) })
	<-bc.done
}

// Dropped returns the number of events dropped so far.
func (bc *BatchCollector) Dropped() int64 { return bc.dropped.Load() }

// Published returns the number of events handed to the publisher.
func (bc *BatchCollector) Published() int64 { return bc.published.Load() }

func (bc *BatchCollector) drop(n int) {
	bc.dropped.Add(int64(n))
	if bc.cfg.OnDrop != nil {
		for i := 0; i < n; i++ {
			bc.cfg.OnDrop()
		}
	}
}

func (bc *BatchCollector) flush(ctx context.Context) {
	if len(bc.backlog) == 0 {
		return
	}
	batch := bc.backlog

	publish := func() error { return bc.publisher.PublishBatch(ctx, batch) }
	var err error
	if bc.cfg.Breaker != nil {
		err = bc.cfg.Breaker.Execute(publish)
	} else {
		err = publish()
	}

	if err != nil {
		bc.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
		limit := bc.cfg.BatchSize * 3
		if len(bc.backlog) > limit {
			dropped := len(bc.backlog) - limit
			bc.backlog = bc.backlog[dropped:]
			bc.drop(dropped)
			bc.logger.Warn("backlog overflow, oldest events dropped", "dropped", dropped)
		}
		return
	}

	bc.published.Add(int64(len(batch)))
	bc.backlog = make([]kafka.Event, 0, bc.cfg.BatchSize)
	bc.logger.Debug("batch flushed", "events", len(batch))
}

// partitionKey keeps one learner's events on one partition; anonymous
// attempts spread by target.
func partitionKey(e analytics.AttemptEvent) string {
	if e.LearnerID != "" {
		return e.LearnerID
	}
	return e.Target
}

func toKafkaEvent(e analytics.AttemptEvent) kafka.Event {
	return kafka.Event{Key: partitionKey(e), Type: string(e.Type), Value: e}
}
