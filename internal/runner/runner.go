package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
	"github.com/shaiso/taskgraph/internal/mq"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/telemetry"
)

// Default configuration values.
const (
	defaultPrefetch = 1
)

// RunStore — хранилище runs.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	Update(ctx context.Context, run *domain.Run) error
}

// EventPublisher — публикация событий выполнения.
type EventPublisher interface {
	PublishRunEvent(ctx context.Context, msgType mq.MessageType, payload mq.RunEventPayload) error
	PublishTaskEvent(ctx context.Context, payload mq.TaskEventPayload) error
}

// Runner выполняет pipelines из каталога.
type Runner struct {
	catalog   *pipeline.Catalog
	store     RunStore
	publisher EventPublisher
	metrics   *telemetry.Metrics
	conn      *mq.Connection

	// Параметры выполнения по умолчанию
	strategy    domain.Strategy
	maxParallel int
	validate    bool
	taskTimeout time.Duration
	out         io.Writer
	prefetch    int

	// Active runs — runs в процессе выполнения (runID → state)
	activeRuns map[uuid.UUID]*runState
	mu         sync.RWMutex

	consumer *mq.Consumer

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config — конфигурация Runner.
type Config struct {
	Catalog   *pipeline.Catalog  // default: pipeline.Builtin()
	Store     RunStore           // default: repo.NewMemoryRunRepo()
	Publisher EventPublisher     // nil — события не публикуются
	Metrics   *telemetry.Metrics // nil — метрики не пишутся
	Conn      *mq.Connection     // nil — Start не потребляет очередь

	Strategy    domain.Strategy // default: bfs
	MaxParallel int
	Validate    bool
	TaskTimeout time.Duration

	// Out — вывод действия log (default: io.Discard).
	Out io.Writer

	// Prefetch для consumer runs.requested (default: 1).
	Prefetch int

	Logger *slog.Logger
}

// New создаёт новый Runner.
func New(cfg Config) *Runner {
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = pipeline.Builtin()
	}

	var store RunStore = cfg.Store
	if store == nil {
		store = repo.NewMemoryRunRepo()
	}

	strategy := cfg.Strategy
	if strategy == "" {
		strategy = domain.StrategyBreadthFirst
	}

	out := cfg.Out
	if out == nil {
		out = io.Discard
	}

	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		catalog:     catalog,
		store:       store,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		conn:        cfg.Conn,
		strategy:    strategy,
		maxParallel: cfg.MaxParallel,
		validate:    cfg.Validate,
		taskTimeout: cfg.TaskTimeout,
		out:         out,
		prefetch:    prefetch,
		activeRuns:  make(map[uuid.UUID]*runState),
		logger:      logger,
	}
}

// Request — запрос на выполнение pipeline.
type Request struct {
	Pipeline string
	Strategy domain.Strategy // пусто — стратегия Runner
	Trigger  domain.Trigger
}

// Execute выполняет pipeline и возвращает итоговый run.
//
// Ошибки до создания run (неизвестный pipeline или стратегия, сбой
// хранилища) возвращаются с nil run. Ошибка выполнения возвращается
// вместе с run в статусе FAILED или CANCELLED.
func (r *Runner) Execute(ctx context.Context, req Request) (*domain.Run, error) {
	if r.IsStopped() {
		return nil, ErrRunnerStopped
	}
	return r.execute(ctx, req)
}

// execute выполняет pipeline без проверки остановки. Используется
// фоновыми runs, уже принятыми до Stop.
func (r *Runner) execute(ctx context.Context, req Request) (*domain.Run, error) {
	def, err := r.catalog.Get(req.Pipeline)
	if err != nil {
		return nil, err
	}

	strategyName := req.Strategy
	if strategyName == "" {
		strategyName = r.strategy
	}
	strategy, err := engine.NewStrategy(strategyName, engine.StrategyOptions{MaxParallel: r.maxParallel})
	if err != nil {
		return nil, err
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = domain.TriggerCLI
	}

	run := domain.NewRun(def.Name, strategy.Name(), trigger)
	if err := r.store.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	state := newRunState(run)
	if err := r.addActiveRun(state); err != nil {
		return nil, err
	}
	defer r.removeActiveRun(run.ID)

	logger := telemetry.WithPipeline(telemetry.WithRunID(r.logger, run.ID.String()), def.Name)
	ctx = telemetry.WithLogger(ctx, logger)

	g := engine.NewGraph()
	defer g.Terminate()

	if _, err := pipeline.Build(g, def, pipeline.Env{Out: r.out, Logger: logger}); err != nil {
		run.MarkFailed(err.Error(), nil, nil)
		r.finish(ctx, run, logger, 0)
		return run, err
	}

	run.MarkRunning(g.Len())
	state.setTotal(g.Len())
	if err := r.store.Update(ctx, run); err != nil {
		logger.Error("failed to update run", "error", err)
	}
	if r.metrics != nil {
		r.metrics.RunStarted()
	}
	r.publishRunEvent(ctx, logger, mq.MessageTypeRunStarted, run, 0)

	logger.Info("run started",
		"strategy", run.Strategy,
		"trigger", run.Trigger,
		"tasks", run.TaskCount,
	)

	exec := engine.NewExecutor(g, engine.Config{
		Strategy: strategy,
		Observer: &runObserver{
			state:     state,
			publisher: r.publisher,
			metrics:   r.metrics,
			logger:    logger,
		},
		Logger:      logger,
		Validate:    r.validate,
		TaskTimeout: r.taskTimeout,
	})

	res, runErr := exec.Run(ctx)

	var phases [][]string
	var executed []string
	var duration time.Duration
	if res != nil {
		phases = res.Phases.Names()
		executed = make([]string, len(res.Order))
		for i, t := range res.Order {
			executed[i] = t.Name()
		}
		duration = res.Duration
	}

	switch {
	case runErr == nil:
		run.MarkSucceeded(phases, executed)
	case ctx.Err() != nil:
		// Отменён сам run; таймаут отдельной задачи — это FAILED
		run.MarkCancelled(runErr.Error(), phases, executed)
	default:
		run.MarkFailed(runErr.Error(), phases, executed)
	}

	if r.metrics != nil {
		r.metrics.RunFinished(string(run.Strategy), string(run.Status), duration, len(phases))
	}
	r.finish(ctx, run, logger, duration)

	return run, runErr
}

// Submit выполняет pipeline в фоне. Stop дожидается фоновых runs.
//
// Неизвестный pipeline отклоняется сразу, ошибки выполнения только логируются:
// run с ошибкой уже записан в хранилище.
func (r *Runner) Submit(ctx context.Context, req Request) error {
	if !r.catalog.Has(req.Pipeline) {
		return fmt.Errorf("%w: %s", pipeline.ErrPipelineNotFound, req.Pipeline)
	}

	// wg.Add под stoppedMu: Stop не может начать wg.Wait между проверкой и Add
	r.stoppedMu.RLock()
	defer r.stoppedMu.RUnlock()
	if r.stopped {
		return ErrRunnerStopped
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.execute(ctx, req); err != nil {
			r.logger.Warn("background run failed",
				"pipeline", req.Pipeline,
				"trigger", req.Trigger,
				"error", err,
			)
		}
	}()
	return nil
}

// finish сохраняет терминальный run и публикует run.finished.
// Контекст может быть уже отменён, запись выполняется без отмены.
func (r *Runner) finish(ctx context.Context, run *domain.Run, logger *slog.Logger, d time.Duration) {
	ctx = context.WithoutCancel(ctx)

	if err := r.store.Update(ctx, run); err != nil {
		logger.Error("failed to update run", "error", err)
	}
	r.publishRunEvent(ctx, logger, mq.MessageTypeRunFinished, run, d)

	attrs := []any{
		"status", run.Status,
		"phases", len(run.Phases),
		"executed", len(run.Executed),
		"duration", d,
	}
	if run.Status == domain.RunStatusSucceeded {
		logger.Info("run finished", attrs...)
		return
	}
	logger.Warn("run finished", append(attrs, "error", run.Error)...)
}

func (r *Runner) publishRunEvent(ctx context.Context, logger *slog.Logger, msgType mq.MessageType, run *domain.Run, d time.Duration) {
	if r.publisher == nil {
		return
	}
	err := r.publisher.PublishRunEvent(ctx, msgType, mq.RunEventPayload{
		RunID:      run.ID,
		Pipeline:   run.Pipeline,
		Strategy:   string(run.Strategy),
		Trigger:    string(run.Trigger),
		Status:     string(run.Status),
		Phases:     run.Phases,
		Executed:   len(run.Executed),
		Error:      run.Error,
		DurationMs: d.Milliseconds(),
	})
	if err != nil {
		logger.Warn("failed to publish run event", "type", msgType, "error", err)
	}
}

// Start запускает consumer очереди runs.requested.
// Без MQ соединения Start ничего не делает.
func (r *Runner) Start(ctx context.Context) error {
	if r.conn == nil {
		r.logger.Info("runner started without message queue")
		return nil
	}

	r.stoppedMu.Lock()
	defer r.stoppedMu.Unlock()
	if r.stopped {
		return ErrRunnerStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancelFunc = cancel

	r.consumer = mq.NewConsumer(r.conn, r.logger, mq.ConsumerConfig{
		Queue:    mq.QueueRunsRequested,
		Handler:  r.handleRunRequested,
		Prefetch: r.prefetch,
	})

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Error("run consumer error", "error", err)
		}
	}()

	r.logger.Info("runner started", "queue", mq.QueueRunsRequested, "prefetch", r.prefetch)
	return nil
}

// Stop останавливает Runner и ждёт завершения consumer и фоновых runs.
func (r *Runner) Stop() {
	r.stoppedMu.Lock()
	r.stopped = true
	cancel, consumer := r.cancelFunc, r.consumer
	r.stoppedMu.Unlock()

	r.logger.Info("stopping runner...")

	if cancel != nil {
		cancel()
	}
	if consumer != nil {
		consumer.Stop()
	}

	r.wg.Wait()

	r.logger.Info("runner stopped", "active_runs", r.ActiveRunsCount())
}

// IsStopped проверяет, остановлен ли Runner.
func (r *Runner) IsStopped() bool {
	r.stoppedMu.RLock()
	defer r.stoppedMu.RUnlock()
	return r.stopped
}

func (r *Runner) addActiveRun(state *runState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.activeRuns[state.runID()]; exists {
		return ErrRunAlreadyActive
	}
	r.activeRuns[state.runID()] = state
	return nil
}

func (r *Runner) removeActiveRun(runID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.activeRuns, runID)
}

// ActiveRunsCount возвращает количество активных runs.
func (r *Runner) ActiveRunsCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activeRuns)
}

// ActiveRunStats возвращает статистику по активному run.
func (r *Runner) ActiveRunStats(runID uuid.UUID) (RunStats, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.activeRuns[runID]
	if !exists {
		return RunStats{}, false
	}
	return state.stats(), true
}

// ActiveRunIDs возвращает ID активных runs.
func (r *Runner) ActiveRunIDs() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}
	return ids
}
