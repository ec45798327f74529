package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — отчёт об одном обходе графа задач.
//
// Run создаётся когда:
// - Пользователь запускает pipeline через CLI
// - Из очереди runs.requested приходит запрос
// - Scheduler срабатывает по cron-выражению
//
// Run хранит только результат обхода (фазы и порядок вызовов),
// сам граф не сохраняется.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// Pipeline — имя pipeline, по которому построен граф.
	Pipeline string `json:"pipeline"`

	// Strategy — стратегия обхода.
	Strategy Strategy `json:"strategy"`

	// Trigger — источник запуска.
	Trigger Trigger `json:"trigger"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Phases — вычисленные фазы (имена задач).
	Phases [][]string `json:"phases,omitempty"`

	// Executed — имена задач в порядке вызова callback.
	// Для parallel порядок внутри фазы не детерминирован.
	Executed []string `json:"executed,omitempty"`

	// TaskCount — количество зарегистрированных задач.
	TaskCount int `json:"task_count"`

	// StartedAt — время начала обхода.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения (успешного или с ошибкой).
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — текст ошибки, если run завершился с FAILED или CANCELLED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewRun создаёт run в статусе PENDING.
func NewRun(pipeline string, strategy Strategy, trigger Trigger) *Run {
	return &Run{
		ID:        uuid.New(),
		Pipeline:  pipeline,
		Strategy:  strategy,
		Trigger:   trigger,
		Status:    RunStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning(taskCount int) {
	now := time.Now().UTC()
	r.Status = RunStatusRunning
	r.StartedAt = &now
	r.TaskCount = taskCount
}

// MarkSucceeded переводит run в статус SUCCEEDED.
func (r *Run) MarkSucceeded(phases [][]string, executed []string) {
	r.finish(RunStatusSucceeded, phases, executed, "")
}

// MarkFailed переводит run в статус FAILED с ошибкой.
// Фазы и порядок вызовов сохраняются в том виде, в каком обход успел их получить.
func (r *Run) MarkFailed(err string, phases [][]string, executed []string) {
	r.finish(RunStatusFailed, phases, executed, err)
}

// MarkCancelled переводит run в статус CANCELLED.
func (r *Run) MarkCancelled(err string, phases [][]string, executed []string) {
	r.finish(RunStatusCancelled, phases, executed, err)
}

func (r *Run) finish(status RunStatus, phases [][]string, executed []string, err string) {
	now := time.Now().UTC()
	r.Status = status
	r.FinishedAt = &now
	r.Phases = phases
	r.Executed = executed
	r.Error = err
}
