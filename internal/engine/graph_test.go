package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/taskgraph/internal/domain"
)

func TestGraph_RegisterAssignsIDs(t *testing.T) {
	g := NewGraph()

	a, err := g.Add(domain.TaskKindCreatePrompt, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := g.Add(domain.TaskKindInvokeModel, nil, WithName("llm"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID() != "node1" || a.Name() != "node1" {
		t.Errorf("expected node1/node1, got %s/%s", a.ID(), a.Name())
	}
	if b.ID() != "node2" || b.Name() != "llm" {
		t.Errorf("expected node2/llm, got %s/%s", b.ID(), b.Name())
	}

	// Счётчик принадлежит графу, а не процессу
	other := NewGraph()
	c, _ := other.Add(domain.TaskKindCreatePrompt, nil)
	if c.ID() != "node1" {
		t.Errorf("expected node1 in fresh graph, got %s", c.ID())
	}
}

func TestGraph_EntryPointByKind(t *testing.T) {
	g := NewGraph()
	prompt, _ := g.Add(domain.TaskKindCreatePrompt, nil)
	llm, _ := g.Add(domain.TaskKindInvokeModel, nil)
	forced, _ := g.Add(domain.TaskKindOutputData, nil, WithEntryPoint(true))

	entries := g.EntryPoints()
	if len(entries) != 2 || entries[0] != prompt || entries[1] != forced {
		t.Errorf("unexpected entry points: %v", entries)
	}
	if llm.IsEntryPoint() {
		t.Error("invoke_model task should not be an entry point by default")
	}
}

func TestGraph_ConnectKeepsOrder(t *testing.T) {
	_, tasks := buildGraph(t, nil, []string{"A"}, edge{"A", "C"}, edge{"A", "B"})

	outs := tasks["A"].Outputs()
	if len(outs) != 2 || outs[0].ID() != "C" || outs[1].ID() != "B" {
		t.Errorf("outputs should keep registration order, got %v", outs)
	}
	ins := tasks["B"].Inputs()
	if len(ins) != 1 || ins[0].ID() != "A" {
		t.Errorf("expected B inputs [A], got %v", ins)
	}
}

func TestGraph_ConnectUnregistered(t *testing.T) {
	g := NewGraph()
	a, _ := g.Add(domain.TaskKindCreatePrompt, nil, WithID("a"))
	loose := NewTask(domain.TaskKindInvokeModel, nil, WithID("loose"))

	err := g.Connect(a, loose)
	if !errors.Is(err, ErrTaskNotRegistered) {
		t.Errorf("expected ErrTaskNotRegistered, got %v", err)
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.TaskID != "loose" {
		t.Errorf("expected ValidationError for loose, got %v", err)
	}
}

func TestGraph_ForeignTask(t *testing.T) {
	g1 := NewGraph()
	g2 := NewGraph()
	a, _ := g1.Add(domain.TaskKindCreatePrompt, nil)
	b, _ := g2.Add(domain.TaskKindInvokeModel, nil)

	if err := g2.Register(a); !errors.Is(err, ErrForeignTask) {
		t.Errorf("expected ErrForeignTask on register, got %v", err)
	}
	if err := g1.Connect(a, b); !errors.Is(err, ErrForeignTask) {
		t.Errorf("expected ErrForeignTask on connect, got %v", err)
	}
}

func TestGraph_NilTask(t *testing.T) {
	g := NewGraph()
	if err := g.Register(nil); !errors.Is(err, ErrNilTask) {
		t.Errorf("expected ErrNilTask, got %v", err)
	}
	a, _ := g.Add(domain.TaskKindCreatePrompt, nil)
	if err := g.Connect(a, nil); !errors.Is(err, ErrNilTask) {
		t.Errorf("expected ErrNilTask, got %v", err)
	}
}

func TestGraph_RegisterNoDedupe(t *testing.T) {
	g := NewGraph()
	a := NewTask(domain.TaskKindCreatePrompt, nil, WithID("a"))
	if err := g.Register(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Register(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 registrations, got %d", g.Len())
	}

	// Повторная регистрация не приводит к повторному выполнению
	rec := &recorder{}
	a.fn = rec.fn
	if _, err := NewExecutor(g, Config{}).Run(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, rec.names(), []string{"a"})
}

func TestGraph_Lookup(t *testing.T) {
	g, tasks := buildGraph(t, nil, []string{"A"}, edge{"A", "B"})

	got, ok := g.Task("B")
	if !ok || got != tasks["B"] {
		t.Errorf("expected to find B")
	}
	if _, ok := g.Task("missing"); ok {
		t.Error("expected missing task not to be found")
	}
	if len(g.Tasks()) != 2 {
		t.Errorf("expected 2 tasks, got %d", len(g.Tasks()))
	}
}

func TestGraph_Terminate(t *testing.T) {
	g, tasks := buildGraph(t, nil, []string{"A"}, edge{"A", "B"}, edge{"B", "C"})

	g.Terminate()

	if g.Len() != 0 {
		t.Errorf("expected 0 tasks after terminate, got %d", g.Len())
	}
	if len(g.EntryPoints()) != 0 {
		t.Errorf("expected no entry points after terminate")
	}
	if !g.IsTerminated() {
		t.Error("expected graph to be terminated")
	}
	if len(tasks["A"].Outputs()) != 0 || len(tasks["B"].Inputs()) != 0 {
		t.Error("expected edges to be released")
	}

	// Повторный Terminate безопасен
	g.Terminate()

	if _, err := g.Add(domain.TaskKindCreatePrompt, nil); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated on add, got %v", err)
	}
	if err := g.Connect(tasks["A"], tasks["B"]); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated on connect, got %v", err)
	}
	if _, err := NewExecutor(g, Config{}).Run(t.Context()); !errors.Is(err, ErrTerminated) {
		t.Errorf("expected ErrTerminated on run, got %v", err)
	}
}
