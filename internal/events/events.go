// Package events publishes domain events to Kafka
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Event types
const (
	TypeModelRetrained    = "model.retrained"
	TypeHotspotsPredicted = "hotspots.predicted"
)

// Event is the envelope written to the topic
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// NewEvent stamps a payload with an ID and time
func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:         uuid.New().String(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher sends events somewhere
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// New returns a Kafka publisher, or a no-op one when no brokers are configured
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 || topic == "" {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(brokers, topic)
}

// KafkaPublisher writes JSON events to a single topic
type KafkaPublisher struct {
	writer *kafkago.Writer
}

// NewKafkaPublisher creates a publisher for one topic
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafkago.RequireOne,
		},
	}
}

// Publish writes one event
func (p *KafkaPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := ToMessage(evt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish %s to %s: %w", evt.Type, p.writer.Topic, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// ToMessage encodes an event as a Kafka message keyed by event ID
func ToMessage(evt Event) (kafkago.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("events: encode %s: %w", evt.Type, err)
	}
	return kafkago.Message{
		Key:   []byte(evt.ID),
		Value: value,
		Time:  evt.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(evt.Type)},
		},
	}, nil
}

// NoopPublisher drops every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
