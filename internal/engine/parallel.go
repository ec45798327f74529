package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shaiso/taskgraph/internal/domain"
)

// LevelParallel выполняет каждый уровень Кана параллельно, с барьером
// между уровнями.
//
// Отмена контекста прекращает запуск новых уровней, уже запущенные
// задачи текущего уровня доигрывают до конца. Ошибка задачи не отменяет
// соседей по уровню, но следующий уровень не запускается.
type LevelParallel struct {
	// MaxParallel — максимум одновременно выполняемых задач. 0 — без ограничения.
	MaxParallel int
}

// Name возвращает domain.StrategyLevelParallel.
func (LevelParallel) Name() domain.Strategy { return domain.StrategyLevelParallel }

// Execute выполняет уровни по очереди.
func (p LevelParallel) Execute(ctx context.Context, g *Graph, visit VisitFunc) (Phases, error) {
	levels, err := PlanLevels(g)
	if err != nil {
		return nil, err
	}

	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			return levels[:i], err
		}
		if visit == nil {
			continue
		}

		// Контекст группы не передаём в задачи: ошибка соседа
		// не должна прерывать уже запущенные задачи уровня.
		var eg errgroup.Group
		if p.MaxParallel > 0 {
			eg.SetLimit(p.MaxParallel)
		}
		for _, t := range level {
			eg.Go(func() error {
				return visit(ctx, t)
			})
		}
		if err := eg.Wait(); err != nil {
			return levels[:i], err
		}
	}

	return levels, nil
}
