package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/taskgraph/internal/domain"
)

// TriggerFunc запускает pipeline по расписанию.
//
// Возвращает ID созданного run или uuid.Nil, если run создаётся
// асинхронно (например, через публикацию в очередь).
type TriggerFunc func(ctx context.Context, sched *domain.Schedule) (uuid.UUID, error)

// LeaderFunc сообщает, является ли текущий процесс лидером.
// Тик выполняется только лидером.
type LeaderFunc func(ctx context.Context) (bool, error)

// Scheduler — планировщик, запускающий pipeline по cron-расписаниям.
type Scheduler struct {
	mu        sync.Mutex
	schedules []*domain.Schedule
	trigger   TriggerFunc
	leader    LeaderFunc
	interval  time.Duration
	logger    *slog.Logger
}

// Config — конфигурация Scheduler.
type Config struct {
	Schedules []*domain.Schedule
	Trigger   TriggerFunc
	Leader    LeaderFunc    // опционально; nil — процесс всегда лидер
	Interval  time.Duration // период тика (default: 1s)
	Logger    *slog.Logger
}

// ErrNoTrigger — в Config не задан Trigger.
var ErrNoTrigger = errors.New("scheduler trigger is required")

// New создаёт Scheduler и вычисляет первое время запуска
// для каждого расписания относительно now.
func New(cfg Config, now time.Time) (*Scheduler, error) {
	if cfg.Trigger == nil {
		return nil, ErrNoTrigger
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	schedules := make([]*domain.Schedule, 0, len(cfg.Schedules))
	for _, sched := range cfg.Schedules {
		if sched.NextDueAt == nil {
			next, err := CalculateNextDue(sched.CronExpr, sched.Timezone, now)
			if err != nil {
				return nil, fmt.Errorf("schedule %s: %w", sched.Pipeline, err)
			}
			sched.NextDueAt = &next
		}
		schedules = append(schedules, sched)
	}

	return &Scheduler{
		schedules: schedules,
		trigger:   cfg.Trigger,
		leader:    cfg.Leader,
		interval:  interval,
		logger:    logger,
	}, nil
}

// Tick выполняет один тик планировщика.
//
// Для каждого due schedule вызывает Trigger и сдвигает next_due_at.
// Ошибки одного schedule не блокируют обработку остальных.
// Возвращает количество запущенных runs.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	if s.leader != nil {
		ok, err := s.leader(ctx)
		if err != nil {
			return 0, fmt.Errorf("leader check: %w", err)
		}
		if !ok {
			return 0, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var due, triggered int
	for _, sched := range s.schedules {
		if err := ctx.Err(); err != nil {
			return triggered, err
		}
		if !sched.IsDue(now) {
			continue
		}
		due++

		if err := s.processSchedule(ctx, sched, now); err != nil {
			s.logger.Error("failed to process schedule",
				"pipeline", sched.Pipeline,
				"cron_expr", sched.CronExpr,
				"error", err,
			)
			continue
		}
		triggered++
	}

	if due > 0 {
		s.logger.Info("scheduler tick completed",
			"due", due,
			"runs_triggered", triggered,
		)
	}

	return triggered, nil
}

// processSchedule запускает один schedule и сдвигает его next_due_at.
// next_due_at сдвигается и при ошибке запуска, чтобы не повторять её каждый тик.
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) error {
	nextDue, err := CalculateNextDue(sched.CronExpr, sched.Timezone, now)
	if err != nil {
		sched.Enabled = false
		return fmt.Errorf("calculate next due, schedule disabled: %w", err)
	}

	runID, trigErr := s.trigger(ctx, sched)
	sched.RecordRun(runID, now, nextDue)
	if trigErr != nil {
		return fmt.Errorf("trigger run: %w", trigErr)
	}

	s.logger.Info("triggered run from schedule",
		"pipeline", sched.Pipeline,
		"strategy", sched.Strategy,
		"run_id", runID,
		"next_due_at", nextDue,
	)
	return nil
}

// Run вызывает Tick с периодом Interval до отмены ctx.
func (s *Scheduler) Run(ctx context.Context) error {
	tk := time.NewTicker(s.interval)
	defer tk.Stop()

	s.logger.Info("scheduler started",
		"schedules", len(s.schedules),
		"interval", s.interval,
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case t := <-tk.C:
			if _, err := s.Tick(ctx, t); err != nil && ctx.Err() == nil {
				s.logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}

// Schedules возвращает копию текущего состояния расписаний.
func (s *Scheduler) Schedules() []domain.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Schedule, len(s.schedules))
	for i, sched := range s.schedules {
		out[i] = *sched
	}
	return out
}
