package pipeline

import (
	"fmt"
	"strings"

	"github.com/shaiso/taskgraph/internal/domain"
)

// Definition — декларативное описание графа задач.
type Definition struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Tasks       []TaskDef `json:"tasks"`
}

// TaskDef — описание одной задачи.
type TaskDef struct {
	ID      string          `json:"id"`
	Name    string          `json:"name,omitempty"`
	Kind    domain.TaskKind `json:"kind"`
	Outputs []string        `json:"outputs,omitempty"`

	// Entry переопределяет точку входа. nil — по типу задачи.
	Entry *bool `json:"entry,omitempty"`

	Action  string `json:"action,omitempty"`   // default: log
	Message string `json:"message,omitempty"`  // для log и fail
	DelayMs int    `json:"delay_ms,omitempty"` // для delay

	URL    string `json:"url,omitempty"`    // для http
	Method string `json:"method,omitempty"` // для http (default: POST)
}

// IsEntryPoint возвращает итоговый флаг точки входа.
func (t TaskDef) IsEntryPoint() bool {
	if t.Entry != nil {
		return *t.Entry
	}
	return t.Kind.DefaultEntryPoint()
}

// DisplayName возвращает Name или ID.
func (t TaskDef) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.ID
}

// Validate проверяет описание.
//
// Проверяет:
//   - Наличие имени пайплайна
//   - Уникальность и непустоту ID задач
//   - Допустимость типа и действия
//   - Что outputs ссылаются на задачи этого пайплайна
//
// Циклы здесь не проверяются, это делает engine.Validate.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}

	ids := make(map[string]bool, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.ID == "" {
			return fmt.Errorf("%w: pipeline %s: task ID is required", ErrInvalidDefinition, d.Name)
		}
		if ids[t.ID] {
			return fmt.Errorf("%w: pipeline %s: duplicate task ID %s", ErrInvalidDefinition, d.Name, t.ID)
		}
		ids[t.ID] = true

		if !t.Kind.IsValid() {
			return fmt.Errorf("%w: task %s: unknown kind %q", ErrInvalidDefinition, t.ID, t.Kind)
		}
		if !IsKnownAction(t.Action) {
			return fmt.Errorf("%w: task %s: %w: %q (known: %s)",
				ErrInvalidDefinition, t.ID, ErrUnknownAction, t.Action, strings.Join(Actions(), ", "))
		}
		if t.DelayMs < 0 {
			return fmt.Errorf("%w: task %s: delay_ms must be non-negative", ErrInvalidDefinition, t.ID)
		}
		if t.Action == ActionHTTP {
			if err := validateHTTP(t); err != nil {
				return fmt.Errorf("%w: task %s: %w", ErrInvalidDefinition, t.ID, err)
			}
		}
	}

	for _, t := range d.Tasks {
		for _, out := range t.Outputs {
			if !ids[out] {
				return fmt.Errorf("%w: task %s: output %s is not defined", ErrInvalidDefinition, t.ID, out)
			}
		}
	}

	return nil
}

// EntryPoints возвращает ID задач-точек входа в порядке объявления.
func (d *Definition) EntryPoints() []string {
	var entries []string
	for _, t := range d.Tasks {
		if t.IsEntryPoint() {
			entries = append(entries, t.ID)
		}
	}
	return entries
}
