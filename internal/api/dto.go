package api

import (
	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/pipeline"
)

// PipelineResponse — pipeline в списке.
type PipelineResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tasks       int      `json:"tasks"`
	EntryPoints []string `json:"entry_points"`
}

// NewPipelineResponse конвертирует описание в ответ.
func NewPipelineResponse(def *pipeline.Definition) PipelineResponse {
	entries := def.EntryPoints()
	if entries == nil {
		entries = []string{}
	}
	return PipelineResponse{
		Name:        def.Name,
		Description: def.Description,
		Tasks:       len(def.Tasks),
		EntryPoints: entries,
	}
}

// CreateRunRequest — запрос на запуск pipeline.
type CreateRunRequest struct {
	Strategy string `json:"strategy,omitempty"` // пусто — стратегия worker

	// Wait — выполнить синхронно и вернуть итоговый run.
	Wait bool `json:"wait,omitempty"`
}

// SubmittedResponse — ответ на фоновый запуск.
type SubmittedResponse struct {
	Pipeline string          `json:"pipeline"`
	Strategy domain.Strategy `json:"strategy,omitempty"`
	Status   string          `json:"status"`
}
