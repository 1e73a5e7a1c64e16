package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// New stamps id and timestamp on a fresh event.
func New(eventType, key string, payload any) Event {
	return Event{
		EventID:   uuid.New().String(),
		Type:      eventType,
		Key:       key,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

const DefaultPublishTimeout = 2 * time.Second

type KafkaPublisher struct {
	writer  *kafka.Writer
	logger  *zap.Logger
	timeout time.Duration
}

// NewKafkaPublisher bounds every Publish by timeout; zero means
// DefaultPublishTimeout.
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration, logger *zap.Logger) *KafkaPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: timeout,
		MaxAttempts:  3,
	}
	return &KafkaPublisher{writer: writer, logger: logger, timeout: timeout}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("failed to marshal event", zap.String("type", ev.Type), zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(ev.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("failed to publish event",
			zap.String("event_id", ev.EventID),
			zap.String("type", ev.Type),
			zap.Error(err))
		return err
	}

	p.logger.Debug("event published",
		zap.String("event_id", ev.EventID),
		zap.String("type", ev.Type),
		zap.String("key", ev.Key))
	return nil
}

func (p *KafkaPublisher) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error { return nil }
