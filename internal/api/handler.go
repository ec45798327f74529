package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/runner"
)

// RunReader — чтение сохранённых runs.
type RunReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
}

// RunExecutor — запуск pipelines.
type RunExecutor interface {
	Execute(ctx context.Context, req runner.Request) (*domain.Run, error)
	Submit(ctx context.Context, req runner.Request) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	catalog   *pipeline.Catalog
	runs      RunReader
	runner    RunExecutor
	schedules func() []domain.Schedule
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Catalog *pipeline.Catalog
	Runs    RunReader
	Runner  RunExecutor

	// Schedules возвращает состояние расписаний. nil — расписаний нет.
	Schedules func() []domain.Schedule

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		catalog:   cfg.Catalog,
		runs:      cfg.Runs,
		runner:    cfg.Runner,
		schedules: cfg.Schedules,
		logger:    logger,
	}
}
