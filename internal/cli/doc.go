// Package cli реализует инструмент командной строки taskgraph.
//
// # Обзор
//
// CLI выполняет pipelines локально, показывает их фазы без выполнения,
// читает сохранённые runs и ставит pipelines в очередь worker.
//
// # Ключевые компоненты
//
// ## Env
//
// Зависимости команд: конфигурация из окружения, логгер в stderr,
// каталог pipelines (встроенные плюс HCL из --file) и хранилище runs,
// которое открывается только командами, которым оно нужно.
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: taskgraph plan demo --json | jq .
//
// ## Commands
//
//   - run PIPELINE: выполнение, вывод фаз "[a b] [c]" и порядка вызовов
//   - plan PIPELINE: фазы bfs и kahn без вызова callbacks
//   - pipeline: list, show
//   - runs: list, get
//   - enqueue PIPELINE: публикация run.requested в RabbitMQ
//   - schedule: list, next
//
// Каждая группа создаётся через фабричную функцию (NewRunCmd и т.д.),
// принимающую envFn и outputFn — замыкания для ленивого создания
// Env и Output после парсинга PersistentFlags.
package cli
