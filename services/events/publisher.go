package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher delivers events to their final destination
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// LogPublisher writes events to the structured log. It is used when no broker
// is configured.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that logs each event at info level
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, event *Event) error {
	p.logger.Info("auth event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("user_id", event.UserID),
		zap.String("role", event.Role.String()),
		zap.Int64("session_id", event.SessionID),
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// AMQPPublisher publishes events as persistent JSON messages to a durable
// RabbitMQ queue through the default exchange.
type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex
	ch *amqp.Channel
}

// NewAMQPPublisher dials url and declares queue
func NewAMQPPublisher(url, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, queue: queue}, nil
}

// Publish sends one event. amqp channels are not safe for concurrent
// publishing, so calls are serialized.
func (p *AMQPPublisher) Publish(ctx context.Context, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         string(event.Type),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch != nil {
		_ = p.ch.Close()
	}
	return p.conn.Close()
}
