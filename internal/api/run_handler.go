package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/runner"
)

// ListRuns — GET /api/v1/runs?pipeline=demo&status=FAILED&limit=10&offset=0
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repo.RunFilter{
		Pipeline: q.Get("pipeline"),
		Status:   domain.RunStatus(strings.ToUpper(q.Get("status"))),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			BadRequest(w, "invalid offset")
			return
		}
		filter.Offset = n
	}

	runs, err := h.runs.List(r.Context(), filter)
	if HandleError(w, h.logger, err) {
		return
	}

	List(w, runs, len(runs))
}

// GetRun — GET /api/v1/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run ID")
		return
	}

	run, err := h.runs.GetByID(r.Context(), id)
	if HandleError(w, h.logger, err) {
		return
	}

	Success(w, run)
}

// CreateRun — POST /api/v1/pipelines/{name}/runs
//
// По умолчанию run выполняется в фоне (202). С "wait": true ответ
// содержит итоговый run: 201 при успехе, 422 при ошибке выполнения.
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	var strategy domain.Strategy
	if req.Strategy != "" {
		s, err := domain.ParseStrategy(req.Strategy)
		if err != nil {
			BadRequest(w, err.Error())
			return
		}
		strategy = s
	}

	runReq := runner.Request{
		Pipeline: r.PathValue("name"),
		Strategy: strategy,
		Trigger:  domain.TriggerCLI,
	}

	if !req.Wait {
		// Run не отменяется вместе с запросом
		if err := h.runner.Submit(context.WithoutCancel(r.Context()), runReq); HandleError(w, h.logger, err) {
			return
		}
		Accepted(w, SubmittedResponse{
			Pipeline: runReq.Pipeline,
			Strategy: runReq.Strategy,
			Status:   "QUEUED",
		})
		return
	}

	run, err := h.runner.Execute(r.Context(), runReq)
	if run == nil {
		HandleError(w, h.logger, err)
		return
	}
	if err != nil {
		JSON(w, http.StatusUnprocessableEntity, DataResponse{Data: run})
		return
	}

	Created(w, run)
}
