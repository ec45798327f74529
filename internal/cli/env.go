package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shaiso/taskgraph/internal/config"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/telemetry"
)

// Options — глобальные флаги CLI.
type Options struct {
	JSON bool

	// File — HCL файл или каталог с pipelines, дополняет встроенные.
	// Пусто — TASKGRAPH_PIPELINES из окружения.
	File string
}

// Env — зависимости команд, создаются после парсинга флагов.
type Env struct {
	Config  *config.Config
	Catalog *pipeline.Catalog
	Logger  *slog.Logger

	opened *repo.Opened
}

// NewEnv загружает конфигурацию, логгер и каталог pipelines.
// Хранилище открывается лениво в Store.
func NewEnv(opts Options) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := telemetry.SetupCLILogger(cfg.LogLevel, "text")

	catalog := pipeline.Builtin()
	path := opts.File
	if path == "" {
		path = cfg.PipelinesPath
	}
	if path != "" {
		n, err := pipeline.LoadInto(catalog, path)
		if err != nil {
			return nil, fmt.Errorf("load pipelines: %w", err)
		}
		logger.Debug("pipelines loaded", "path", path, "count", n)
	}

	return &Env{
		Config:  cfg,
		Catalog: catalog,
		Logger:  logger,
	}, nil
}

// Store открывает хранилище runs из конфигурации.
func (e *Env) Store(ctx context.Context) (repo.Store, error) {
	if e.opened == nil {
		opened, err := repo.Open(ctx, e.Config)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", e.Config.Store, err)
		}
		e.opened = opened
	}
	return e.opened.Store, nil
}

// Close освобождает открытые ресурсы.
func (e *Env) Close() {
	if e.opened != nil {
		e.opened.Close()
	}
}
