package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns   Exchange = "taskgraph.runs"
	ExchangeEvents Exchange = "taskgraph.events"
	ExchangeDLQ    Exchange = "taskgraph.dlq"
)

// Queues — имена очередей.
const (
	QueueRunsRequested Queue = "runs.requested"
	QueueEventsRuns    Queue = "events.runs"
	QueueEventsTasks   Queue = "events.tasks"
	QueueDLQRuns       Queue = "dlq.runs"
)

// Routing keys.
const (
	RoutingKeyRequested    RoutingKey = "requested"
	RoutingKeyRunStarted   RoutingKey = "run.started"
	RoutingKeyRunFinished  RoutingKey = "run.finished"
	RoutingKeyTaskFinished RoutingKey = "task.finished"
	RoutingKeyDLQRuns      RoutingKey = "runs"

	// Шаблоны привязки для topic exchange событий.
	bindingRunEvents  RoutingKey = "run.*"
	bindingTaskEvents RoutingKey = "task.*"
)

// SetupTopology объявляет exchanges, queues и bindings.
// Операции идемпотентны, вызывать можно при каждом старте.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeRuns, amqp.ExchangeDirect},
		{ExchangeEvents, amqp.ExchangeTopic},
		{ExchangeDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

func declareQueues(ch *amqp.Channel) error {
	// Запросы, которые не удалось выполнить, уходят в dlq.runs
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueRunsRequested, dlqArgs},
		{QueueEventsRuns, nil},
		{QueueEventsTasks, nil},
		{QueueDLQRuns, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

func bindQueues(ch *amqp.Channel) error {
	for _, b := range bindings() {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}

type binding struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

func bindings() []binding {
	return []binding{
		{QueueRunsRequested, RoutingKeyRequested, ExchangeRuns},
		{QueueEventsRuns, bindingRunEvents, ExchangeEvents},
		{QueueEventsTasks, bindingTaskEvents, ExchangeEvents},
		{QueueDLQRuns, RoutingKeyDLQRuns, ExchangeDLQ},
	}
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  taskgraph RabbitMQ topology:

    taskgraph.runs (direct)
    └── runs.requested [routing: requested]
            Consumer: taskgraph-worker
            DLQ: dlq.runs

    taskgraph.events (topic)
    ├── events.runs  [routing: run.*]
    └── events.tasks [routing: task.*]
            Consumers: external subscribers

    taskgraph.dlq (direct)
    └── dlq.runs [routing: runs]
            Manual processing
`
}
