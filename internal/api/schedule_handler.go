package api

import (
	"net/http"

	"github.com/shaiso/taskgraph/internal/domain"
)

// ListSchedules — GET /api/v1/schedules
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules := []domain.Schedule{}
	if h.schedules != nil {
		schedules = h.schedules()
	}

	List(w, schedules, len(schedules))
}
