package domain

import (
	"time"

	"github.com/google/uuid"
)

// Schedule — расписание автоматического запуска pipeline.
//
// Schedule позволяет запускать pipeline:
// - По cron-выражению: "0 9 * * *" (каждый день в 9:00)
// - По дескриптору: "@hourly", "@every 30s"
//
// Scheduler проверяет NextDueAt и запускает run, когда время подошло.
type Schedule struct {
	// Pipeline — имя pipeline из каталога.
	Pipeline string `json:"pipeline"`

	// Strategy — стратегия обхода для запусков по расписанию.
	Strategy Strategy `json:"strategy"`

	// CronExpr — cron-выражение (5 полей) или дескриптор.
	// Примеры:
	//   "*/5 * * * *"   — каждые 5 минут
	//   "0 0 * * 0"     — каждое воскресенье в полночь
	//   "@every 1m"     — раз в минуту
	CronExpr string `json:"cron_expr"`

	// Timezone — часовой пояс для вычисления времени.
	// По умолчанию: "UTC".
	Timezone string `json:"timezone"`

	// Enabled — флаг активности расписания.
	Enabled bool `json:"enabled"`

	// NextDueAt — время следующего запуска.
	NextDueAt *time.Time `json:"next_due_at,omitempty"`

	// LastRunAt — время последнего запуска.
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	// LastRunID — ID последнего созданного run.
	LastRunID *uuid.UUID `json:"last_run_id,omitempty"`
}

// IsDue проверяет, пора ли запускать.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled {
		return false
	}
	if s.NextDueAt == nil {
		return false
	}
	return now.After(*s.NextDueAt) || now.Equal(*s.NextDueAt)
}

// RecordRun записывает информацию о запуске.
// runID может быть uuid.Nil, если run создаётся асинхронно (через очередь).
func (s *Schedule) RecordRun(runID uuid.UUID, at, nextDue time.Time) {
	s.LastRunAt = &at
	if runID != uuid.Nil {
		s.LastRunID = &runID
	}
	s.NextDueAt = &nextDue
}
