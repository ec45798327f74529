package engine

import "errors"

// Ошибки реестра задач.
var (
	// ErrNilTask — передана nil-задача.
	ErrNilTask = errors.New("task is nil")

	// ErrTerminated — граф уже освобождён через Terminate.
	ErrTerminated = errors.New("graph is terminated")

	// ErrForeignTask — задача принадлежит другому графу.
	ErrForeignTask = errors.New("task belongs to another graph")

	// ErrTaskNotRegistered — задача не зарегистрирована в графе.
	ErrTaskNotRegistered = errors.New("task is not registered in graph")
)

// Ошибки валидации графа.
var (
	// ErrDuplicateTaskID — несколько разных задач с одинаковым ID.
	ErrDuplicateTaskID = errors.New("duplicate task ID")

	// ErrSelfDependency — задача ссылается сама на себя.
	ErrSelfDependency = errors.New("task depends on itself")

	// ErrCyclicDependency — обнаружен цикл в зависимостях.
	ErrCyclicDependency = errors.New("cyclic dependency detected")
)

// Ошибки выполнения.
var (
	// ErrTaskFailed — callback задачи вернул ошибку.
	ErrTaskFailed = errors.New("task failed")

	// ErrUnknownStrategy — неизвестная стратегия обхода.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	TaskID  string // ID задачи, где обнаружена ошибка
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.TaskID != "" {
		return "task " + e.TaskID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(taskID, message string, err error) *ValidationError {
	return &ValidationError{
		TaskID:  taskID,
		Message: message,
		Err:     err,
	}
}

// TaskError — ошибка callback конкретной задачи.
//
// errors.Is(err, ErrTaskFailed) == true, errors.Unwrap возвращает
// исходную ошибку callback.
type TaskError struct {
	TaskID   string
	TaskName string
	Err      error
}

// Error реализует интерфейс error.
func (e *TaskError) Error() string {
	return "task " + e.TaskName + " (" + e.TaskID + ") failed: " + e.Err.Error()
}

// Unwrap возвращает ошибку callback.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// Is сопоставляет TaskError с ErrTaskFailed.
func (e *TaskError) Is(target error) bool {
	return target == ErrTaskFailed
}
