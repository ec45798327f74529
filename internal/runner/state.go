package runner

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/domain"
)

// runState — состояние активного run.
type runState struct {
	run *domain.Run

	mu        sync.RWMutex
	total     int
	running   int
	completed int
	failed    int
}

func newRunState(run *domain.Run) *runState {
	return &runState{run: run}
}

func (s *runState) runID() uuid.UUID { return s.run.ID }

func (s *runState) setTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = n
}

func (s *runState) taskStarted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running++
}

func (s *runState) taskFinished(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running--
	if err != nil {
		s.failed++
	} else {
		s.completed++
	}
}

// RunStats — статистика выполнения активного run.
type RunStats struct {
	Pipeline       string
	Strategy       domain.Strategy
	StartedAt      time.Time
	TotalTasks     int
	RunningTasks   int
	CompletedTasks int
	FailedTasks    int
}

func (s *runState) stats() RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := RunStats{
		Pipeline:       s.run.Pipeline,
		Strategy:       s.run.Strategy,
		TotalTasks:     s.total,
		RunningTasks:   s.running,
		CompletedTasks: s.completed,
		FailedTasks:    s.failed,
	}
	if s.run.StartedAt != nil {
		stats.StartedAt = *s.run.StartedAt
	}
	return stats
}
