package engine

import "context"

// PlanBreadthFirst вычисляет фазы поэтапного обхода в ширину,
// не вызывая callback задач.
//
// Результат совпадает с фазами, которые вернёт BreadthFirst.Execute
// на том же графе.
func PlanBreadthFirst(g *Graph) (Phases, error) {
	if g.IsTerminated() {
		return nil, ErrTerminated
	}
	return walkBreadthFirst(context.Background(), g.EntryPoints(), nil)
}

// PlanLevels вычисляет уровни алгоритмом Кана.
//
// Учитываются только задачи, достижимые из точек входа, и рёбра между
// ними (с кратностью). Уровень 0 — достижимые задачи без входящих рёбер
// в порядке обнаружения, далее задача попадает в уровень, следующий за
// уровнем её последнего предшественника.
//
// Возвращает ErrCyclicDependency, если достижимая часть графа содержит цикл.
func PlanLevels(g *Graph) (Phases, error) {
	if g.IsTerminated() {
		return nil, ErrTerminated
	}

	nodes := reachable(g.EntryPoints())

	ids := make(map[string]*Task, len(nodes))
	for _, node := range nodes {
		if prev, exists := ids[node.id]; exists {
			return nil, NewValidationError(node.id,
				"duplicate task ID: "+prev.id, ErrDuplicateTaskID)
		}
		ids[node.id] = node
	}

	// Входящая степень внутри достижимого подграфа
	inDegree := make(map[*Task]int, len(nodes))
	for _, node := range nodes {
		for _, dep := range node.outputs {
			inDegree[dep]++
		}
	}

	current := make(Phase, 0)
	for _, node := range nodes {
		if inDegree[node] == 0 {
			current = append(current, node)
		}
	}

	levels := make(Phases, 0)
	processed := 0

	for len(current) > 0 {
		levels = append(levels, current)
		processed += len(current)

		next := make(Phase, 0)
		for _, node := range current {
			// Уменьшаем inDegree у зависимых узлов
			for _, dep := range node.outputs {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}

	// Если не все узлы обработаны — есть цикл
	if processed != len(nodes) {
		for _, node := range nodes {
			if inDegree[node] > 0 {
				return nil, NewValidationError(node.id,
					"task is part of a dependency cycle", ErrCyclicDependency)
			}
		}
		return nil, ErrCyclicDependency
	}

	return levels, nil
}

// reachable возвращает задачи, достижимые из entries, в порядке
// обхода в ширину. Каждая задача встречается один раз.
func reachable(entries []*Task) []*Task {
	seen := make(map[*Task]bool, len(entries))
	order := make([]*Task, 0, len(entries))

	for _, e := range entries {
		if !seen[e] {
			seen[e] = true
			order = append(order, e)
		}
	}

	for i := 0; i < len(order); i++ {
		for _, dep := range order[i].outputs {
			if !seen[dep] {
				seen[dep] = true
				order = append(order, dep)
			}
		}
	}

	return order
}
