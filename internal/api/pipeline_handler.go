package api

import (
	"net/http"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/pipeline"
)

// ListPipelines — GET /api/v1/pipelines
func (h *Handler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	defs := h.catalog.List()

	resp := make([]PipelineResponse, len(defs))
	for i, def := range defs {
		resp[i] = NewPipelineResponse(def)
	}

	List(w, resp, len(resp))
}

// GetPipeline — GET /api/v1/pipelines/{name}
func (h *Handler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog.Get(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, def)
}

// PlanPipeline — GET /api/v1/pipelines/{name}/plan?strategy=kahn
//
// Без strategy возвращает фазы bfs и kahn.
func (h *Handler) PlanPipeline(w http.ResponseWriter, r *http.Request) {
	def, err := h.catalog.Get(r.PathValue("name"))
	if HandleError(w, h.logger, err) {
		return
	}

	strategies := []domain.Strategy{domain.StrategyBreadthFirst, domain.StrategyInDegree}
	if v := r.URL.Query().Get("strategy"); v != "" {
		s, err := domain.ParseStrategy(v)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		strategies = []domain.Strategy{s}
	}

	results, err := pipeline.Plan(def, strategies)
	if HandleError(w, h.logger, err) {
		return
	}

	List(w, results, len(results))
}
