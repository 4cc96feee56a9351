package eventpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/iho/fintrack/internal/domain"
)

// messageWriter is the subset of kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes outbox events to a Kafka topic, keyed by user so
// each user's events stay ordered within one partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	})
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

type eventMessage struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	EventType     string         `json:"event_type"`
	AggregateType string         `json:"aggregate_type"`
	AggregateID   string         `json:"aggregate_id"`
	Payload       map[string]any `json:"payload"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Publish writes event synchronously.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	value, err := json.Marshal(eventMessage{
		ID:            event.ID,
		UserID:        event.UserID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		CreatedAt:     event.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	})
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
