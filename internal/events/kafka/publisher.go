// Package kafka publishes ledger transition events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"erario/internal/events"
)

// Publisher writes TransitionEvents as JSON messages.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for topic on the given brokers. Messages are
// hash-balanced on their key so a line item's events stay in one partition.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Publish sends one event and waits for the brokers to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, event events.TransitionEvent) error {
	msg, err := newMessage(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s %s: %w", event.Reference, event.To, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func newMessage(event events.TransitionEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal transition event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.PartitionKey()),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte("ledger.transition." + string(event.To))},
		},
	}, nil
}
