package engine

import (
	"context"

	"github.com/shaiso/taskgraph/internal/domain"
)

// InDegree — последовательное выполнение по уровням Кана.
//
// Уровни вычисляются до запуска первой задачи, поэтому цикл
// в достижимой части графа обнаруживается до любых side effects.
// Внутри уровня задачи выполняются в порядке уровня.
type InDegree struct{}

// Name возвращает domain.StrategyInDegree.
func (InDegree) Name() domain.Strategy { return domain.StrategyInDegree }

// Execute выполняет задачи уровень за уровнем в вызывающей горутине.
func (InDegree) Execute(ctx context.Context, g *Graph, visit VisitFunc) (Phases, error) {
	levels, err := PlanLevels(g)
	if err != nil {
		return nil, err
	}

	for i, level := range levels {
		for _, t := range level {
			if err := ctx.Err(); err != nil {
				return levels[:i], err
			}
			if visit == nil {
				continue
			}
			if err := visit(ctx, t); err != nil {
				return levels[:i], err
			}
		}
	}

	return levels, nil
}
