package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/domain"
)

// MemoryRunRepo — репозиторий runs в памяти процесса.
// Используется CLI и тестами. Потокобезопасен.
type MemoryRunRepo struct {
	mu   sync.RWMutex
	runs map[uuid.UUID]domain.Run
}

// NewMemoryRunRepo создаёт пустой MemoryRunRepo.
func NewMemoryRunRepo() *MemoryRunRepo {
	return &MemoryRunRepo{
		runs: make(map[uuid.UUID]domain.Run),
	}
}

// Create сохраняет копию run.
func (r *MemoryRunRepo) Create(_ context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; exists {
		return ErrAlreadyExists
	}
	r.runs[run.ID] = cloneRun(run)
	return nil
}

// GetByID возвращает копию run.
func (r *MemoryRunRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, ErrNotFound
	}
	out := cloneRun(&run)
	return &out, nil
}

// Update перезаписывает существующий run.
func (r *MemoryRunRepo) Update(_ context.Context, run *domain.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.runs[run.ID]; !exists {
		return ErrNotFound
	}
	r.runs[run.ID] = cloneRun(run)
	return nil
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *MemoryRunRepo) List(_ context.Context, filter RunFilter) ([]domain.Run, error) {
	r.mu.RLock()
	runs := make([]domain.Run, 0, len(r.runs))
	for _, run := range r.runs {
		if filter.matches(&run) {
			runs = append(runs, cloneRun(&run))
		}
	}
	r.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return filter.page(runs), nil
}

// cloneRun копирует run вместе со срезами.
func cloneRun(run *domain.Run) domain.Run {
	out := *run
	if run.Phases != nil {
		out.Phases = make([][]string, len(run.Phases))
		for i, p := range run.Phases {
			out.Phases[i] = append([]string(nil), p...)
		}
	}
	if run.Executed != nil {
		out.Executed = append([]string(nil), run.Executed...)
	}
	if run.StartedAt != nil {
		t := *run.StartedAt
		out.StartedAt = &t
	}
	if run.FinishedAt != nil {
		t := *run.FinishedAt
		out.FinishedAt = &t
	}
	return out
}
