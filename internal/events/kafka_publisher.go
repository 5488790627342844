package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes freeze events to a kafka topic, keyed by target account
// so every change to one holder lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
}

var _ Publisher = (*KafkaPublisher)(nil)

// Writes are flushed immediately and give up after a few attempts; events are
// best effort next to the audit table.
const (
	writeBatchTimeout = 10 * time.Millisecond
	writeTimeout      = 5 * time.Second
	writeMaxAttempts  = 3
)

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: writeBatchTimeout,
			WriteTimeout: writeTimeout,
			MaxAttempts:  writeMaxAttempts,
		},
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, events ...FreezeEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		if ev.OccurredAt.IsZero() {
			ev.OccurredAt = time.Now().UTC()
		}
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode freeze event: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(ev.TargetAccount),
			Value: value,
			Time:  ev.OccurredAt,
		})
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write freeze events: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
