// Package kafka carries practice attempt events over Kafka using
// segmentio/kafka-go. Producers publish JSON events keyed by learner and
// consumers hand each decoded record to a MessageHandler.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Pronunciation-Practice-Platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Message is one fetched record.
type Message struct {
	Key       []byte
	Value     []byte
	Type      string // HeaderEventType, empty when the producer did not set it
	Partition int
	Offset    int64
}

// MessageHandler processes one record. A nil return commits the offset; an
// error leaves it uncommitted so the record is redelivered after a
// rebalance or restart.
type MessageHandler func(ctx context.Context, msg Message) error

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	logger  *slog.Logger
}

// NewConsumer joins cfg.ConsumerGroup on topic. New groups start from the
// latest offset.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.LastOffset,
		}),
		handler: handler,
		logger:  slog.Default().With("component", "event-consumer", "topic", topic, "group", cfg.ConsumerGroup),
	}
}

// Start consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.logger.Info("consumer stopped")
	for {
		raw, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return c.reader.Close()
			}
			c.logger.Error("fetch failed", "error", err)
			continue
		}
		c.process(ctx, raw)
	}
}

func (c *Consumer) process(ctx context.Context, raw kafka.Message) {
	msg := fromKafka(raw)
	log := c.logger.With("partition", msg.Partition, "offset", msg.Offset)
	if err := c.handler(ctx, msg); err != nil {
		log.Error("handler failed, offset not committed", "error", err)
		return
	}
	if err := c.reader.CommitMessages(ctx, raw); err != nil {
		log.Error("commit failed", "error", err)
	}
}

func fromKafka(raw kafka.Message) Message {
	msg := Message{Key: raw.Key, Value: raw.Value, Partition: raw.Partition, Offset: raw.Offset}
	for _, h := range raw.Headers {
		if h.Key == HeaderEventType {
			msg.Type = string(h.Value)
			break
		}
	}
	return msg
}

// PingBrokers dials brokers in order and succeeds on the first that answers.
func PingBrokers(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, b := range brokers {
		conn, err := kafka.DialContext(ctx, "tcp", b)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, err)
	}
	return fmt.Errorf("no kafka broker reachable: %w", errors.Join(errs...))
}

// Close releases the reader without waiting for Start to return.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a record value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding event: %w", err)
	}
	return v, nil
}
