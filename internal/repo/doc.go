// Package repo хранит отчёты о выполнении графов (runs).
//
// Реализации:
//   - run_repo.go    — PostgreSQL через pgxpool, фазы в JSONB
//   - redis_repo.go  — Redis, JSON с TTL и индекс в sorted set
//   - memory_repo.go — в памяти процесса
//   - lock.go        — pg_advisory_lock для выбора лидера scheduler
//
// Все реализации возвращают ErrNotFound для отсутствующего run.
package repo
