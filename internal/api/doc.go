// Package api содержит HTTP API worker.
//
// Структура:
//   - handler.go          — Handler с DI (каталог, хранилище runs, runner, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (request id, logging, recovery)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - pipeline_handler.go — обработчики для /pipelines и /plan
//   - run_handler.go      — обработчики для /runs
//   - schedule_handler.go — обработчики для /schedules
//
// API позволяет смотреть каталог и фазы pipelines, запускать их
// и читать сохранённые runs.
package api
