package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaiso/taskgraph/internal/engine"
)

// Env — окружение, в котором выполняются действия задач.
type Env struct {
	Out        io.Writer    // вывод действия log (default: io.Discard)
	HTTPClient *http.Client // клиент действия http (default: таймаут 30s)
	Logger     *slog.Logger
}

// Build строит граф по описанию.
//
// Построение в две фазы: сначала создаются и регистрируются все задачи
// в порядке объявления, затем добавляются рёбра в порядке объявления
// задач и их outputs. Порядок рёбер определяет порядок обхода.
//
// Возвращает задачи по ID.
func Build(g *engine.Graph, def *Definition, env Env) (map[string]*engine.Task, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if env.Out == nil {
		env.Out = io.Discard
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.HTTPClient == nil {
		env.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	tasks := make(map[string]*engine.Task, len(def.Tasks))

	// Фаза 1: задачи
	for _, td := range def.Tasks {
		fn, err := action(td, env)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", td.ID, err)
		}

		opts := []engine.TaskOption{
			engine.WithID(td.ID),
			engine.WithName(td.DisplayName()),
		}
		if td.Entry != nil {
			opts = append(opts, engine.WithEntryPoint(*td.Entry))
		}

		t, err := g.Add(td.Kind, fn, opts...)
		if err != nil {
			return nil, fmt.Errorf("register task %s: %w", td.ID, err)
		}
		tasks[td.ID] = t
	}

	// Фаза 2: рёбра
	for _, td := range def.Tasks {
		for _, out := range td.Outputs {
			if err := g.Connect(tasks[td.ID], tasks[out]); err != nil {
				return nil, fmt.Errorf("connect %s -> %s: %w", td.ID, out, err)
			}
		}
	}

	env.Logger.Debug("pipeline built",
		"pipeline", def.Name,
		"tasks", len(def.Tasks),
		"entry_points", len(g.EntryPoints()),
	)

	return tasks, nil
}
