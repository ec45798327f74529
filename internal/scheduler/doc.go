// Package scheduler запускает pipeline по cron-расписаниям.
//
// Scheduler периодически проверяет расписания с истекшим next_due_at
// и запускает runs через TriggerFunc.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick, Run)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//   - entries.go   — разбор расписаний из строки конфигурации
//
// Использование:
//
//	entries, err := scheduler.ParseEntries("demo:kahn=*/5 * * * *;diamond=@hourly")
//	sched, err := scheduler.New(scheduler.Config{
//	    Schedules: entries,
//	    Trigger:   trigger,
//	    Logger:    logger,
//	}, time.Now())
//
//	go sched.Run(ctx)
//
// Leader Election:
//
// Scheduler не реализует leader election самостоятельно.
// В worker лидерство определяется через pg_try_advisory_lock
// и передаётся в Config.Leader.
package scheduler
