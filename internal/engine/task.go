package engine

import (
	"context"

	"github.com/shaiso/taskgraph/internal/domain"
)

// TaskFunc — тело задачи.
//
// Callback получает собственную задачу явным параметром, поэтому ему не
// нужно захватывать соседние задачи до того, как они построены.
// Движок вызывает callback ровно один раз за обход, не повторяет его
// и не перехватывает panic.
type TaskFunc func(ctx context.Context, t *Task) error

// Task — узел графа задач.
type Task struct {
	id    string
	name  string
	kind  domain.TaskKind
	fn    TaskFunc
	entry bool

	// outputs — зависимые задачи, порядок добавления рёбер.
	// Именно по ним идёт обход.
	outputs []*Task

	// inputs — обратные ссылки, только для информации.
	inputs []*Task

	// graph — граф-владелец (nil, пока задача не зарегистрирована).
	graph *Graph
}

// TaskOption настраивает задачу при создании.
type TaskOption func(*Task)

// WithID задаёт идентификатор задачи.
// Без него ID выдаётся счётчиком графа при регистрации.
func WithID(id string) TaskOption {
	return func(t *Task) { t.id = id }
}

// WithName задаёт человекочитаемое имя. По умолчанию имя совпадает с ID.
func WithName(name string) TaskOption {
	return func(t *Task) { t.name = name }
}

// WithEntryPoint переопределяет флаг точки входа, выведенный из типа.
func WithEntryPoint(entry bool) TaskOption {
	return func(t *Task) { t.entry = entry }
}

// NewTask создаёт незарегистрированную задачу.
// nil fn заменяется пустым callback.
func NewTask(kind domain.TaskKind, fn TaskFunc, opts ...TaskOption) *Task {
	if fn == nil {
		fn = noop
	}
	t := &Task{
		kind:  kind,
		fn:    fn,
		entry: kind.DefaultEntryPoint(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ID возвращает идентификатор задачи.
func (t *Task) ID() string { return t.id }

// Name возвращает имя задачи.
func (t *Task) Name() string { return t.name }

// Kind возвращает тип задачи.
func (t *Task) Kind() domain.TaskKind { return t.kind }

// IsEntryPoint возвращает флаг точки входа.
func (t *Task) IsEntryPoint() bool { return t.entry }

// Outputs возвращает копию списка зависимых задач.
func (t *Task) Outputs() []*Task {
	return append([]*Task(nil), t.outputs...)
}

// Inputs возвращает копию списка предшественников.
func (t *Task) Inputs() []*Task {
	return append([]*Task(nil), t.inputs...)
}

// String реализует fmt.Stringer.
func (t *Task) String() string {
	return t.name
}

func noop(context.Context, *Task) error { return nil }
