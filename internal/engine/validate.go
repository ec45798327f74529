package engine

import (
	"fmt"
	"strings"
)

// Validate проверяет граф перед обходом.
//
// Проверяет:
// - Уникальность ID (разные задачи с одним ID)
// - Отсутствие рёбер задачи на саму себя
// - Отсутствие циклов во всём графе, а не только в достижимой части
//
// Сам обход эти свойства не проверяет: bfs на графе с циклом просто
// не заходит повторно в посещённые задачи.
func Validate(g *Graph) error {
	if g.IsTerminated() {
		return ErrTerminated
	}

	tasks := g.Tasks()

	byID := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		if prev, exists := byID[t.id]; exists && prev != t {
			return NewValidationError(t.id,
				fmt.Sprintf("duplicate task ID: %s", t.id), ErrDuplicateTaskID)
		}
		byID[t.id] = t

		for _, dep := range t.outputs {
			if dep == t {
				return NewValidationError(t.id, "task depends on itself", ErrSelfDependency)
			}
		}
	}

	return detectCycle(tasks)
}

// Цвета DFS.
const (
	white = iota // не посещён
	grey         // на стеке
	black        // обработан
)

// detectCycle ищет цикл обходом в глубину и возвращает ошибку с путём цикла.
func detectCycle(tasks []*Task) error {
	color := make(map[*Task]int, len(tasks))
	stack := make([]*Task, 0)

	var visit func(t *Task) error
	visit = func(t *Task) error {
		color[t] = grey
		stack = append(stack, t)

		for _, dep := range t.outputs {
			switch color[dep] {
			case grey:
				return NewValidationError(dep.id,
					"dependency cycle: "+cyclePath(stack, dep), ErrCyclicDependency)
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[t] = black
		return nil
	}

	for _, t := range tasks {
		if color[t] == white {
			if err := visit(t); err != nil {
				return err
			}
		}
	}
	return nil
}

// cyclePath строит строку "a -> b -> a" от первого вхождения start на стеке.
func cyclePath(stack []*Task, start *Task) string {
	names := make([]string, 0, len(stack)+1)
	found := false
	for _, t := range stack {
		if t == start {
			found = true
		}
		if found {
			names = append(names, t.name)
		}
	}
	names = append(names, start.name)
	return strings.Join(names, " -> ")
}
