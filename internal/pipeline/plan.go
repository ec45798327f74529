package pipeline

import (
	"fmt"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
)

// PlanResult — фазы pipeline для одной стратегии без выполнения задач.
type PlanResult struct {
	Strategy domain.Strategy `json:"strategy"`
	Phases   [][]string      `json:"phases"`
	Error    string          `json:"error,omitempty"`
}

// Plan строит граф по описанию и вычисляет фазы для каждой стратегии.
// Callbacks не вызываются. Ошибка стратегии (например, цикл для kahn)
// попадает в PlanResult.Error.
func Plan(def *Definition, strategies []domain.Strategy) ([]PlanResult, error) {
	g := engine.NewGraph()
	defer g.Terminate()

	if _, err := Build(g, def, Env{}); err != nil {
		return nil, fmt.Errorf("build %s: %w", def.Name, err)
	}

	results := make([]PlanResult, 0, len(strategies))
	for _, s := range strategies {
		var phases engine.Phases
		var err error
		switch s {
		case domain.StrategyBreadthFirst:
			phases, err = engine.PlanBreadthFirst(g)
		case domain.StrategyInDegree, domain.StrategyLevelParallel:
			phases, err = engine.PlanLevels(g)
		default:
			err = fmt.Errorf("%w: %s", engine.ErrUnknownStrategy, s)
		}

		r := PlanResult{Strategy: s, Phases: phases.Names()}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results, nil
}
