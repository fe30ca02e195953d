// Package eventbus publishes domain events to a Kafka topic.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the JSON body of one event message.
type envelope struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	SubjectType string            `json:"subjectType"`
	SubjectID   string            `json:"subjectId"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	OccurredAt  time.Time         `json:"occurredAt"`
}

// Publisher implements ports.EventPublisher. Messages are keyed by subject
// so that the events of one aggregate stay ordered within a partition.
type Publisher struct {
	writer messageWriter
	log    *zap.Logger
}

func NewPublisher(config Config, log *zap.Logger) *Publisher {
	batchTimeout := config.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Topic:                  config.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, log)
}

func newPublisher(writer messageWriter, log *zap.Logger) *Publisher {
	return &Publisher{writer: writer, log: log.With(zap.String("component", "event_publisher"))}
}

func (p *Publisher) Publish(ctx context.Context, events ...kernel.Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		body, err := json.Marshal(envelope{
			ID:          e.ID().String(),
			Name:        e.Name(),
			SubjectType: string(e.Subject().Type()),
			SubjectID:   e.Subject().ID(),
			Attributes:  e.Attributes(),
			OccurredAt:  e.OccurredAt().UTC(),
		})
		if err != nil {
			return fmt.Errorf("encode event %s: %w", e.Name(), err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.Subject().String()),
			Value: body,
			Time:  e.OccurredAt(),
			Headers: []kafka.Header{
				{Key: "event-name", Value: []byte(e.Name())},
				{Key: "event-id", Value: []byte(e.ID().String())},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d events: %w", len(msgs), err)
	}
	p.log.Debug("events published", zap.Int("count", len(msgs)))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
