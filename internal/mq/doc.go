// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация запросов и событий
//   - consumer.go   — потребление сообщений, ack/nack, DLQ
//
// Типы сообщений:
//   - run.requested  — запрос на выполнение pipeline
//   - run.started    — run начал выполнение
//   - run.finished   — run завершён (любой терминальный статус)
//   - task.finished  — callback задачи завершён
//
// Exchanges:
//   - taskgraph.runs   — запросы на выполнение
//   - taskgraph.events — события runs и задач (topic)
//   - taskgraph.dlq    — dead letter queue
package mq
