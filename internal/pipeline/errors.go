package pipeline

import "errors"

var (
	// ErrPipelineNotFound — пайплайн не найден в каталоге.
	ErrPipelineNotFound = errors.New("pipeline not found")

	// ErrDuplicatePipeline — одно имя пайплайна описано несколько раз.
	ErrDuplicatePipeline = errors.New("duplicate pipeline")

	// ErrInvalidDefinition — описание пайплайна не прошло валидацию.
	ErrInvalidDefinition = errors.New("invalid pipeline definition")

	// ErrUnknownAction — неизвестное действие задачи.
	ErrUnknownAction = errors.New("unknown action")

	// ErrActionFailed — действие fail.
	ErrActionFailed = errors.New("action failed")
)
