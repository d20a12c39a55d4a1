package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// HeaderEventType carries Event.Type so consumers can skip foreign payloads
// without decoding them.
const HeaderEventType = "event-type"

// Event is one record for the topic. Key picks the partition, so all events
// for a learner land on the same partition and stay ordered. Value is
// encoded as JSON.
type Event struct {
	Key   string
	Type  string
	Value any
}

// Producer writes attempt events to a single topic.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	logger  *slog.Logger
	written atomic.Int64
}

// NewProducer creates a Producer for topic. Writes are synchronous and wait
// for every in-sync replica.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    256,
			BatchTimeout: 20 * time.Millisecond,
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireAll,
		},
		brokers: cfg.Brokers,
		logger:  slog.Default().With("component", "event-producer", "topic", topic),
	}
}

// Publish writes one event.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch writes events in one call. Nothing is written when any
// value fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs, err := encodeEvents(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("event write failed", "events", len(msgs), "error", err)
		return fmt.Errorf("writing %d events: %w", len(msgs), err)
	}
	total := p.written.Add(int64(len(msgs)))
	p.logger.Debug("events written", "events", len(msgs), "total", total)
	return nil
}

// Written reports how many events this producer has delivered.
func (p *Producer) Written() int64 { return p.written.Load() }

// Ping checks that at least one configured broker accepts connections.
func (p *Producer) Ping(ctx context.Context) error {
	return PingBrokers(ctx, p.brokers)
}

// Close flushes buffered writes.
func (p *Producer) Close() error {
	return p.writer.Close()
}

func encodeEvents(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		body, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding event %d (key %q): %w", i, e.Key, err)
		}
		msgs[i] = kafka.Message{Key: []byte(e.Key), Value: body}
		if e.Type != "" {
			msgs[i].Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.Type)}}
		}
	}
	return msgs, nil
}
