package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunRequested MessageType = "run.requested"
	MessageTypeRunStarted   MessageType = "run.started"
	MessageTypeRunFinished  MessageType = "run.finished"
	MessageTypeTaskFinished MessageType = "task.finished"
)

// Message — конверт сообщения.
type Message struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage создаёт сообщение с новым ID и текущим временем.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// RunRequestedPayload — запрос на выполнение pipeline.
type RunRequestedPayload struct {
	Pipeline string `json:"pipeline"`
	Strategy string `json:"strategy,omitempty"` // пусто — стратегия worker по умолчанию
	Trigger  string `json:"trigger,omitempty"`  // пусто — mq
}

// RunEventPayload — событие run.started или run.finished.
type RunEventPayload struct {
	RunID      uuid.UUID  `json:"run_id"`
	Pipeline   string     `json:"pipeline"`
	Strategy   string     `json:"strategy"`
	Trigger    string     `json:"trigger"`
	Status     string     `json:"status"`
	Phases     [][]string `json:"phases,omitempty"`
	Executed   int        `json:"executed"`
	Error      string     `json:"error,omitempty"`
	DurationMs int64      `json:"duration_ms,omitempty"`
}

// TaskEventPayload — событие task.finished.
type TaskEventPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	TaskID     string    `json:"task_id"`
	TaskName   string    `json:"task_name"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"` // SUCCEEDED или FAILED
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,              // mandatory
			false,              // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Type:         string(msg.Type),
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunRequested ставит pipeline в очередь на выполнение.
// Потребитель: taskgraph-worker.
func (p *Publisher) PublishRunRequested(ctx context.Context, payload RunRequestedPayload) error {
	return p.Publish(ctx, ExchangeRuns, RoutingKeyRequested,
		NewMessage(MessageTypeRunRequested, payload))
}

// PublishRunEvent публикует run.started или run.finished.
func (p *Publisher) PublishRunEvent(ctx context.Context, msgType MessageType, payload RunEventPayload) error {
	var key RoutingKey
	switch msgType {
	case MessageTypeRunStarted:
		key = RoutingKeyRunStarted
	case MessageTypeRunFinished:
		key = RoutingKeyRunFinished
	default:
		return fmt.Errorf("unexpected run event type: %s", msgType)
	}
	return p.Publish(ctx, ExchangeEvents, key, NewMessage(msgType, payload))
}

// PublishTaskEvent публикует task.finished.
func (p *Publisher) PublishTaskEvent(ctx context.Context, payload TaskEventPayload) error {
	return p.Publish(ctx, ExchangeEvents, RoutingKeyTaskFinished,
		NewMessage(MessageTypeTaskFinished, payload))
}
