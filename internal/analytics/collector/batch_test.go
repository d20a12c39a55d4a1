package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/resilience"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]kafka.Event
	err     error
}

func (f *fakePublisher) PublishBatch(_ context.Context, events []kafka.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]kafka.Event(nil), events...))
	return nil
}

func (f *fakePublisher) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

func event(learner string) analytics.AttemptEvent {
	return analytics.AttemptEvent{Type: analytics.EventAttempt, LearnerID: learner, Target: "hello world", FinalScore: 90}
}

func TestCollectorFlushesOnBatchSizeAndClose(t *testing.T) {
	pub := &fakePublisher{}
	bc := New(pub, Config{BatchSize: 2, FlushInterval: time.Hour})
	bc.Start(context.Background())

	for i := 0; i < 5; i++ {
		bc.Track(event("learner-1"))
	}
	bc.Close()

	assert.Equal(t, 5, pub.total())
	assert.Equal(t, int64(5), bc.Published())
	assert.Zero(t, bc.Dropped())
	assert.Equal(t, "learner-1", pub.batches[0][0].Key)
}

func TestCollectorFlushesOnInterval(t *testing.T) {
	pub := &fakePublisher{}
	bc := New(pub, Config{BatchSize: 100, FlushInterval: 10 * time.Millisecond})
	bc.Start(context.Background())
	defer bc.Close()

	bc.Track(event(""))
	require.Eventually(t, func() bool { return pub.total() == 1 }, time.Second, 5*time.Millisecond)
}

func TestCollectorDropsWhenBufferFull(t *testing.T) {
	drops := 0
	bc := New(&fakePublisher{}, Config{BufferSize: 1, OnDrop: func() { drops++ }})

	bc.Track(event("a"))
	bc.Track(event("b"))
	assert.Equal(t, int64(1), bc.Dropped())
	assert.Equal(t, 1, drops)
}

func TestCollectorKeepsBoundedBacklogOnFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	bc := New(pub, Config{BatchSize: 1})
	for i := 0; i < 4; i++ {
		bc.backlog = append(bc.backlog, kafka.Event{Key: "k", Value: event("k")})
	}

	bc.flush(context.Background())
	assert.Len(t, bc.backlog, 3)
	assert.Equal(t, int64(1), bc.Dropped())
	assert.Zero(t, bc.Published())
}

func TestCollectorBreakerStopsPublishing(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	breaker := resilience.NewCircuitBreaker("kafka", resilience.CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Hour})
	bc := New(pub, Config{BatchSize: 10, Breaker: breaker})
	bc.backlog = append(bc.backlog, kafka.Event{Key: "k", Value: event("k")})

	bc.flush(context.Background())
	assert.Equal(t, resilience.StateOpen, breaker.GetState())

	pub.err = nil
	bc.flush(context.Background())
	assert.Zero(t, pub.total(), "open breaker must short-circuit the publisher")
	assert.Len(t, bc.backlog, 1)
}

func TestPartitionKey(t *testing.T) {
	assert.Equal(t, "k1", partitionKey(analytics.AttemptEvent{LearnerID: "k1", Target: "x"}))
	assert.Equal(t, "x", partitionKey(analytics.AttemptEvent{Target: "x"}))
}
