package engine

import (
	"context"

	"github.com/shaiso/taskgraph/internal/domain"
)

// rootID — ID синтетической корневой задачи обхода.
const rootID = "START_NODE"

// BreadthFirst — поэтапный обход в ширину.
//
// Фаза — множество задач, впервые ставших достижимыми при извлечении
// одной задачи из очереди. Задача с несколькими предшественниками
// попадает в фазу того из них, кто был извлечён первым. Листовые задачи
// выполняются, но собственной фазы не порождают.
//
// Такие фазы не годятся для параллельного выполнения: задача может
// оказаться в одной фазе со своим предшественником. Для этого есть
// LevelParallel.
type BreadthFirst struct{}

// Name возвращает domain.StrategyBreadthFirst.
func (BreadthFirst) Name() domain.Strategy { return domain.StrategyBreadthFirst }

// Execute обходит граф, вызывая visit при извлечении задачи из очереди.
func (BreadthFirst) Execute(ctx context.Context, g *Graph, visit VisitFunc) (Phases, error) {
	if g.IsTerminated() {
		return nil, ErrTerminated
	}
	return walkBreadthFirst(ctx, g.EntryPoints(), visit)
}

// walkBreadthFirst — общий цикл обхода. При visit == nil только
// вычисляет фазы.
func walkBreadthFirst(ctx context.Context, entries []*Task, visit VisitFunc) (Phases, error) {
	// Корень живёт только на время обхода и в граф не регистрируется
	root := &Task{id: rootID, name: rootID, fn: noop, outputs: entries}

	queue := []*Task{root}
	visited := make(map[string]bool)
	phases := make(Phases, 0)

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return phases, err
		}

		current := queue[0]
		queue = queue[1:]

		if current != root && visit != nil {
			if err := visit(ctx, current); err != nil {
				return phases, err
			}
		}

		frontier := make(Phase, 0)
		for _, next := range current.outputs {
			if visited[next.id] {
				continue
			}
			visited[next.id] = true
			queue = append(queue, next)
			frontier = append(frontier, next)
		}

		if len(frontier) > 0 {
			phases = append(phases, frontier)
		}
	}

	return phases, nil
}
