package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/taskgraph/internal/config"
	"github.com/shaiso/taskgraph/internal/domain"
)

func newRun(pipeline string, createdAt time.Time) *domain.Run {
	run := domain.NewRun(pipeline, domain.StrategyBreadthFirst, domain.TriggerCLI)
	run.CreatedAt = createdAt
	return run
}

func TestMemoryRunRepo_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRunRepo()

	run := newRun("demo", time.Now())
	if err := r.Create(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Create(ctx, run); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	run.MarkRunning(4)
	run.MarkSucceeded([][]string{{"a"}, {"b"}}, []string{"a", "b"})
	if err := r.Update(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := r.GetByID(ctx, run.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.RunStatusSucceeded || len(got.Phases) != 2 || got.TaskCount != 4 {
		t.Errorf("unexpected run: %+v", got)
	}

	// Возвращается копия
	got.Phases[0][0] = "changed"
	again, _ := r.GetByID(ctx, run.ID)
	if again.Phases[0][0] != "a" {
		t.Error("stored run was mutated through returned copy")
	}
}

func TestMemoryRunRepo_NotFound(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRunRepo()

	if _, err := r.GetByID(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := r.Update(ctx, newRun("demo", time.Now())); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRunRepo_List(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRunRepo()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	first := newRun("demo", base)
	second := newRun("chain", base.Add(time.Minute))
	third := newRun("demo", base.Add(2*time.Minute))
	third.MarkRunning(1)
	third.MarkFailed("boom", nil, nil)

	for _, run := range []*domain.Run{first, second, third} {
		if err := r.Create(ctx, run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, _ := r.List(ctx, RunFilter{})
	if len(all) != 3 || all[0].ID != third.ID || all[2].ID != first.ID {
		t.Errorf("expected newest first, got %v", all)
	}

	demo, _ := r.List(ctx, RunFilter{Pipeline: "demo"})
	if len(demo) != 2 {
		t.Errorf("expected 2 demo runs, got %d", len(demo))
	}

	failed, _ := r.List(ctx, RunFilter{Status: domain.RunStatusFailed})
	if len(failed) != 1 || failed[0].ID != third.ID {
		t.Errorf("expected only failed run, got %v", failed)
	}

	page, _ := r.List(ctx, RunFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].ID != second.ID {
		t.Errorf("unexpected page: %v", page)
	}

	empty, _ := r.List(ctx, RunFilter{Offset: 10})
	if len(empty) != 0 {
		t.Errorf("expected empty page, got %d", len(empty))
	}
}

func TestOpen_Memory(t *testing.T) {
	opened, err := Open(t.Context(), &config.Config{Store: config.StoreMemory})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer opened.Close()

	if _, ok := opened.Store.(*MemoryRunRepo); !ok {
		t.Fatalf("store = %T, want *MemoryRunRepo", opened.Store)
	}
	if opened.Pool != nil {
		t.Error("pool should be nil for memory store")
	}
}

func TestOpen_UnsupportedStore(t *testing.T) {
	if _, err := Open(t.Context(), &config.Config{Store: "sqlite"}); err == nil {
		t.Fatal("expected error for unsupported store")
	}
}
