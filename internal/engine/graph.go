package engine

import (
	"strconv"
	"sync"

	"github.com/shaiso/taskgraph/internal/domain"
)

// Graph — реестр задач.
//
// Graph единолично владеет зарегистрированными задачами: все они лежат
// в одном срезе, рёбра между ними — невладеющие ссылки. Terminate
// очищает этот срез и рёбра, после чего граф непригоден к использованию.
//
// Реестр изменяется только до обхода (регистрация, рёбра) и после него
// (Terminate). Обход не должен идти одновременно с изменениями.
type Graph struct {
	mu sync.RWMutex

	// tasks — задачи в порядке регистрации. Дубликаты не отбрасываются.
	tasks []*Task

	// seq — счётчик для ID по умолчанию, свой у каждого графа.
	seq int

	terminated bool
}

// NewGraph создаёт пустой граф.
func NewGraph() *Graph {
	return &Graph{
		tasks: make([]*Task, 0),
	}
}

// Register добавляет задачу в граф.
//
// Дубликаты ID и согласованность рёбер не проверяются (см. Validate).
// Повторная регистрация той же задачи добавляет её ещё раз.
// Задаче без ID выдаётся "nodeN" из счётчика графа.
func (g *Graph) Register(t *Task) error {
	if t == nil {
		return ErrNilTask
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return ErrTerminated
	}
	if t.graph != nil && t.graph != g {
		return ErrForeignTask
	}

	g.seq++
	if t.id == "" {
		t.id = "node" + strconv.Itoa(g.seq)
	}
	if t.name == "" {
		t.name = t.id
	}

	t.graph = g
	g.tasks = append(g.tasks, t)
	return nil
}

// Add создаёт задачу и сразу регистрирует её в графе.
func (g *Graph) Add(kind domain.TaskKind, fn TaskFunc, opts ...TaskOption) (*Task, error) {
	t := NewTask(kind, fn, opts...)
	if err := g.Register(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Connect добавляет ребро src → dst: dst дописывается в outputs src.
// Проверки на циклы нет.
func (g *Graph) Connect(src, dst *Task) error {
	if src == nil || dst == nil {
		return ErrNilTask
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return ErrTerminated
	}
	for _, t := range []*Task{src, dst} {
		switch t.graph {
		case g:
		case nil:
			return NewValidationError(t.id, "connect unregistered task", ErrTaskNotRegistered)
		default:
			return NewValidationError(t.id, "connect task of another graph", ErrForeignTask)
		}
	}

	src.outputs = append(src.outputs, dst)
	dst.inputs = append(dst.inputs, src)
	return nil
}

// EntryPoints возвращает задачи с флагом точки входа в порядке регистрации.
// Граф без точек входа даёт пустой обход, это не ошибка.
func (g *Graph) EntryPoints() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entries := make([]*Task, 0)
	for _, t := range g.tasks {
		if t.entry {
			entries = append(entries, t)
		}
	}
	return entries
}

// Tasks возвращает копию списка задач в порядке регистрации.
func (g *Graph) Tasks() []*Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return append([]*Task(nil), g.tasks...)
}

// Task возвращает первую зарегистрированную задачу с данным ID.
func (g *Graph) Task(id string) (*Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, t := range g.tasks {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

// Len возвращает количество зарегистрированных задач.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.tasks)
}

// IsTerminated проверяет, освобождён ли граф.
func (g *Graph) IsTerminated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.terminated
}

// Terminate освобождает все задачи независимо от того, были ли они
// выполнены, и очищает реестр. Повторный вызов ничего не делает.
//
// Вызов во время обхода не определён.
func (g *Graph) Terminate() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.terminated {
		return
	}

	for _, t := range g.tasks {
		t.outputs = nil
		t.inputs = nil
		t.graph = nil
	}
	g.tasks = nil
	g.terminated = true
}
