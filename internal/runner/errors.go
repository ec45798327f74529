package runner

import "errors"

// Ошибки runner.
var (
	// ErrRunnerStopped — runner остановлен, новые runs не принимаются.
	ErrRunnerStopped = errors.New("runner stopped")

	// ErrRunAlreadyActive — run с таким ID уже выполняется.
	ErrRunAlreadyActive = errors.New("run already being processed")
)
