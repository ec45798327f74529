package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/taskgraph/internal/domain"
)

// Observer получает уведомления о выполнении задач.
//
// Для LevelParallel методы вызываются из нескольких горутин.
type Observer interface {
	TaskStarted(ctx context.Context, t *Task)
	TaskFinished(ctx context.Context, t *Task, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) TaskStarted(context.Context, *Task) {}
func (nopObserver) TaskFinished(context.Context, *Task, time.Duration, error) {}

// Config — конфигурация Executor.
type Config struct {
	Strategy Strategy // стратегия обхода (default: BreadthFirst)
	Observer Observer
	Logger   *slog.Logger

	// Validate — вызвать Validate(g) перед обходом.
	Validate bool

	// TaskTimeout — таймаут одного callback. 0 — без таймаута.
	TaskTimeout time.Duration
}

// Result — итог одного выполнения графа.
type Result struct {
	Strategy domain.Strategy
	Phases   Phases
	Order    []*Task // задачи в порядке вызова callback
	Duration time.Duration
}

// Executor выполняет граф выбранной стратегией.
type Executor struct {
	graph       *Graph
	strategy    Strategy
	observer    Observer
	logger      *slog.Logger
	validate    bool
	taskTimeout time.Duration

	mu     sync.Mutex
	phases Phases // фазы последнего Run
}

// NewExecutor создаёт новый Executor.
func NewExecutor(g *Graph, cfg Config) *Executor {
	strategy := cfg.Strategy
	if strategy == nil {
		strategy = BreadthFirst{}
	}

	observer := cfg.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		graph:       g,
		strategy:    strategy,
		observer:    observer,
		logger:      logger,
		validate:    cfg.Validate,
		taskTimeout: cfg.TaskTimeout,
	}
}

// Run выполняет граф.
//
// Ошибка callback прерывает выполнение и возвращается обёрнутой
// в *TaskError. При ошибке Result всё равно возвращается: в нём фазы
// и задачи, выполненные до ошибки.
func (e *Executor) Run(ctx context.Context) (*Result, error) {
	if e.graph.IsTerminated() {
		return nil, ErrTerminated
	}

	if e.validate {
		if err := Validate(e.graph); err != nil {
			return nil, err
		}
	}

	var (
		orderMu sync.Mutex
		order   []*Task
	)

	visit := func(ctx context.Context, t *Task) error {
		err := e.runTask(ctx, t)

		orderMu.Lock()
		order = append(order, t)
		orderMu.Unlock()

		return err
	}

	e.logger.Info("executing graph",
		"strategy", e.strategy.Name(),
		"tasks", e.graph.Len(),
	)

	start := time.Now()
	phases, err := e.strategy.Execute(ctx, e.graph, visit)

	e.mu.Lock()
	e.phases = phases
	e.mu.Unlock()

	result := &Result{
		Strategy: e.strategy.Name(),
		Phases:   phases,
		Order:    order,
		Duration: time.Since(start),
	}

	if err != nil {
		level := slog.LevelError
		if errors.Is(err, context.Canceled) {
			level = slog.LevelWarn
		}
		e.logger.Log(ctx, level, "graph execution failed",
			"strategy", result.Strategy,
			"executed", len(order),
			"error", err,
		)
		return result, err
	}

	e.logger.Info("graph executed",
		"strategy", result.Strategy,
		"phases", len(phases),
		"executed", len(order),
		"duration", result.Duration,
	)

	return result, nil
}

// runTask вызывает callback задачи с учётом таймаута.
func (e *Executor) runTask(ctx context.Context, t *Task) error {
	taskCtx := ctx
	if e.taskTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, e.taskTimeout)
		defer cancel()
	}

	e.observer.TaskStarted(ctx, t)
	e.logger.Debug("task started", "task_id", t.id, "task", t.name, "kind", t.kind)

	start := time.Now()
	err := t.fn(taskCtx, t)
	elapsed := time.Since(start)

	e.observer.TaskFinished(ctx, t, elapsed, err)

	if err != nil {
		e.logger.Error("task failed",
			"task_id", t.id,
			"task", t.name,
			"error", err,
		)
		return &TaskError{TaskID: t.id, TaskName: t.name, Err: err}
	}

	e.logger.Debug("task finished", "task_id", t.id, "task", t.name, "duration", elapsed)
	return nil
}

// Phases возвращает фазы последнего Run.
func (e *Executor) Phases() Phases {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phases
}

// PhaseNames возвращает фазы последнего Run как имена задач.
func (e *Executor) PhaseNames() [][]string {
	return e.Phases().Names()
}
