package engine

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/shaiso/taskgraph/internal/domain"
)

// recorder запоминает порядок вызова callback.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) fn(_ context.Context, t *Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, t.Name())
	return nil
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// edge — ребро "от" → "к" по ID задач.
type edge [2]string

// buildGraph регистрирует задачи в порядке первого упоминания
// (сначала entries, затем рёбра) и соединяет их.
func buildGraph(t *testing.T, fn TaskFunc, entries []string, edges ...edge) (*Graph, map[string]*Task) {
	t.Helper()

	g := NewGraph()
	tasks := make(map[string]*Task)
	isEntry := make(map[string]bool, len(entries))
	for _, id := range entries {
		isEntry[id] = true
	}

	add := func(id string) *Task {
		if task, ok := tasks[id]; ok {
			return task
		}
		task, err := g.Add(domain.TaskKindInvokeModel, fn, WithID(id), WithEntryPoint(isEntry[id]))
		if err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
		tasks[id] = task
		return task
	}

	for _, id := range entries {
		add(id)
	}
	for _, e := range edges {
		src, dst := add(e[0]), add(e[1])
		if err := g.Connect(src, dst); err != nil {
			t.Fatalf("connect %s -> %s: %v", e[0], e[1], err)
		}
	}

	return g, tasks
}

func assertPhases(t *testing.T, got Phases, want [][]string) {
	t.Helper()
	names := got.Names()
	if len(names) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("phases = %v, want %v", names, want)
	}
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("call order = %v, want %v", got, want)
	}
}
