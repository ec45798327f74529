package engine

import (
	"context"
	"fmt"

	"github.com/shaiso/taskgraph/internal/domain"
)

// VisitFunc вызывается стратегией для каждой посещённой задачи.
type VisitFunc func(ctx context.Context, t *Task) error

// Strategy — алгоритм обхода графа.
//
// Execute посещает каждую достижимую из точек входа задачу не более
// одного раза и возвращает фазы. При ошибке возвращаются фазы,
// вычисленные к этому моменту.
type Strategy interface {
	Name() domain.Strategy
	Execute(ctx context.Context, g *Graph, visit VisitFunc) (Phases, error)
}

// StrategyOptions — параметры создания стратегии.
type StrategyOptions struct {
	// MaxParallel ограничивает число одновременно выполняемых задач
	// уровня для parallel. 0 — без ограничения.
	MaxParallel int
}

// NewStrategy создаёт стратегию по имени.
func NewStrategy(name domain.Strategy, opts StrategyOptions) (Strategy, error) {
	switch name {
	case domain.StrategyBreadthFirst, "":
		return BreadthFirst{}, nil
	case domain.StrategyInDegree:
		return InDegree{}, nil
	case domain.StrategyLevelParallel:
		return LevelParallel{MaxParallel: opts.MaxParallel}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
