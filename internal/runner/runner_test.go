package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
	"github.com/shaiso/taskgraph/internal/mq"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/telemetry"
)

// fakePublisher запоминает опубликованные события.
type fakePublisher struct {
	mu    sync.Mutex
	types []mq.MessageType
	runs  []mq.RunEventPayload
	tasks []mq.TaskEventPayload
	err   error
}

func (p *fakePublisher) PublishRunEvent(_ context.Context, msgType mq.MessageType, payload mq.RunEventPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, msgType)
	p.runs = append(p.runs, payload)
	return p.err
}

func (p *fakePublisher) PublishTaskEvent(_ context.Context, payload mq.TaskEventPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.types = append(p.types, mq.MessageTypeTaskFinished)
	p.tasks = append(p.tasks, payload)
	return p.err
}

func testCatalog(t *testing.T) *pipeline.Catalog {
	t.Helper()
	c := pipeline.Builtin()

	defs := []*pipeline.Definition{
		{
			Name: "failing",
			Tasks: []pipeline.TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"b", "c"}},
				{ID: "b", Kind: domain.TaskKindInvokeModel, Action: pipeline.ActionFail, Message: "model unavailable"},
				{ID: "c", Kind: domain.TaskKindOutputData},
			},
		},
		{
			Name: "slow",
			Tasks: []pipeline.TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Action: pipeline.ActionDelay, DelayMs: 60_000},
			},
		},
		{
			Name: "cyclic",
			Tasks: []pipeline.TaskDef{
				{ID: "a", Kind: domain.TaskKindCreatePrompt, Outputs: []string{"b"}},
				{ID: "b", Kind: domain.TaskKindInvokeModel, Outputs: []string{"a"}},
			},
		},
	}
	for _, def := range defs {
		if err := c.Register(def); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	return c
}

func TestRunner_ExecuteDemo(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	pub := &fakePublisher{}
	var out bytes.Buffer

	r := New(Config{
		Catalog:   testCatalog(t),
		Store:     store,
		Publisher: pub,
		Metrics:   telemetry.NewMetrics(prometheus.NewRegistry()),
		Out:       &out,
	})

	run, err := r.Execute(t.Context(), Request{Pipeline: "demo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Status != domain.RunStatusSucceeded {
		t.Errorf("expected SUCCEEDED, got %s", run.Status)
	}
	if run.Strategy != domain.StrategyBreadthFirst || run.Trigger != domain.TriggerCLI {
		t.Errorf("unexpected run defaults: %s %s", run.Strategy, run.Trigger)
	}
	wantPhases := [][]string{{"prompt"}, {"parse", "llm"}, {"output"}}
	if !reflect.DeepEqual(run.Phases, wantPhases) {
		t.Errorf("phases = %v, want %v", run.Phases, wantPhases)
	}
	wantExecuted := []string{"prompt", "parse", "llm", "output"}
	if !reflect.DeepEqual(run.Executed, wantExecuted) {
		t.Errorf("executed = %v, want %v", run.Executed, wantExecuted)
	}
	if run.TaskCount != 4 {
		t.Errorf("expected 4 tasks, got %d", run.TaskCount)
	}
	if out.Len() == 0 {
		t.Error("expected log action output")
	}

	stored, err := store.GetByID(t.Context(), run.ID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if stored.Status != domain.RunStatusSucceeded || !reflect.DeepEqual(stored.Phases, wantPhases) {
		t.Errorf("unexpected stored run: %+v", stored)
	}

	wantTypes := []mq.MessageType{
		mq.MessageTypeRunStarted,
		mq.MessageTypeTaskFinished,
		mq.MessageTypeTaskFinished,
		mq.MessageTypeTaskFinished,
		mq.MessageTypeTaskFinished,
		mq.MessageTypeRunFinished,
	}
	if !reflect.DeepEqual(pub.types, wantTypes) {
		t.Errorf("events = %v, want %v", pub.types, wantTypes)
	}
	if pub.runs[1].Status != string(domain.RunStatusSucceeded) || pub.runs[1].Executed != 4 {
		t.Errorf("unexpected run.finished payload: %+v", pub.runs[1])
	}
	if r.ActiveRunsCount() != 0 {
		t.Errorf("expected no active runs, got %d", r.ActiveRunsCount())
	}
}

func TestRunner_StrategyOverride(t *testing.T) {
	r := New(Config{Catalog: testCatalog(t)})

	bfs, err := r.Execute(t.Context(), Request{Pipeline: "shortcut"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	kahn, err := r.Execute(t.Context(), Request{Pipeline: "shortcut", Strategy: domain.StrategyInDegree})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := r.Execute(t.Context(), Request{Pipeline: "diamond", Strategy: domain.StrategyLevelParallel})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(bfs.Phases, [][]string{{"a"}, {"b", "c"}}) {
		t.Errorf("unexpected bfs phases: %v", bfs.Phases)
	}
	if !reflect.DeepEqual(kahn.Phases, [][]string{{"a"}, {"b"}, {"c"}}) {
		t.Errorf("unexpected kahn phases: %v", kahn.Phases)
	}
	if kahn.Strategy != domain.StrategyInDegree {
		t.Errorf("expected kahn strategy, got %s", kahn.Strategy)
	}
	if !reflect.DeepEqual(parallel.Phases, [][]string{{"a"}, {"b", "c"}, {"d"}}) {
		t.Errorf("unexpected parallel phases: %v", parallel.Phases)
	}
	if len(parallel.Executed) != 4 || parallel.Executed[0] != "a" || parallel.Executed[3] != "d" {
		t.Errorf("unexpected parallel order: %v", parallel.Executed)
	}
}

func TestRunner_TaskFailure(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	pub := &fakePublisher{}
	r := New(Config{Catalog: testCatalog(t), Store: store, Publisher: pub})

	run, err := r.Execute(t.Context(), Request{Pipeline: "failing"})

	if !errors.Is(err, engine.ErrTaskFailed) || !errors.Is(err, pipeline.ErrActionFailed) {
		t.Fatalf("expected task failure, got %v", err)
	}
	if run == nil || run.Status != domain.RunStatusFailed {
		t.Fatalf("expected FAILED run, got %+v", run)
	}
	if !reflect.DeepEqual(run.Executed, []string{"a", "b"}) {
		t.Errorf("unexpected executed: %v", run.Executed)
	}

	stored, _ := store.GetByID(t.Context(), run.ID)
	if stored.Status != domain.RunStatusFailed || stored.Error == "" {
		t.Errorf("unexpected stored run: %+v", stored)
	}

	var failedEvents int
	for _, e := range pub.tasks {
		if e.Status == string(domain.RunStatusFailed) {
			failedEvents++
			if e.TaskID != "b" || e.Error == "" {
				t.Errorf("unexpected failed task event: %+v", e)
			}
		}
	}
	if failedEvents != 1 {
		t.Errorf("expected 1 failed task event, got %d", failedEvents)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store})

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	run, err := r.Execute(ctx, Request{Pipeline: "slow"})
	if err == nil {
		t.Fatal("expected error")
	}
	if run.Status != domain.RunStatusCancelled {
		t.Errorf("expected CANCELLED, got %s (%v)", run.Status, err)
	}

	stored, _ := store.GetByID(t.Context(), run.ID)
	if stored.Status != domain.RunStatusCancelled {
		t.Errorf("expected stored CANCELLED, got %s", stored.Status)
	}
}

func TestRunner_TaskTimeoutIsFailure(t *testing.T) {
	r := New(Config{Catalog: testCatalog(t), TaskTimeout: 10 * time.Millisecond})

	run, err := r.Execute(t.Context(), Request{Pipeline: "slow"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED, got %s", run.Status)
	}
}

func TestRunner_ValidateRejectsCycle(t *testing.T) {
	r := New(Config{Catalog: testCatalog(t), Validate: true})

	run, err := r.Execute(t.Context(), Request{Pipeline: "cyclic", Strategy: domain.StrategyBreadthFirst})
	if !errors.Is(err, engine.ErrCyclicDependency) {
		t.Fatalf("expected ErrCyclicDependency, got %v", err)
	}
	if run.Status != domain.RunStatusFailed || len(run.Executed) != 0 {
		t.Errorf("unexpected run: %+v", run)
	}
}

func TestRunner_UnknownPipeline(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Store: store})

	run, err := r.Execute(t.Context(), Request{Pipeline: "missing"})
	if !errors.Is(err, pipeline.ErrPipelineNotFound) {
		t.Errorf("expected ErrPipelineNotFound, got %v", err)
	}
	if run != nil {
		t.Error("expected no run")
	}

	runs, _ := store.List(t.Context(), repo.RunFilter{})
	if len(runs) != 0 {
		t.Errorf("expected no stored runs, got %d", len(runs))
	}
}

func TestRunner_Stopped(t *testing.T) {
	r := New(Config{})
	if err := r.Start(t.Context()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Stop()

	if _, err := r.Execute(t.Context(), Request{Pipeline: "demo"}); !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("expected ErrRunnerStopped, got %v", err)
	}
}

func TestRunner_ActiveRunStats(t *testing.T) {
	started := make(chan struct{})

	c := pipeline.NewCatalog()
	_ = c.Register(&pipeline.Definition{
		Name: "blocking",
		Tasks: []pipeline.TaskDef{
			{ID: "a", Kind: domain.TaskKindCreatePrompt, Action: pipeline.ActionDelay, DelayMs: 60_000},
		},
	})
	r := New(Config{Catalog: c})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		_, _ = r.Execute(ctx, Request{Pipeline: "blocking"})
	}()
	<-started

	deadline := time.Now().Add(time.Second)
	for r.ActiveRunsCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	ids := r.ActiveRunIDs()
	if len(ids) != 1 {
		t.Fatalf("expected 1 active run, got %d", len(ids))
	}
	stats, ok := r.ActiveRunStats(ids[0])
	if !ok || stats.Pipeline != "blocking" {
		t.Errorf("unexpected stats: %+v", stats)
	}

	cancel()
	<-done

	if r.ActiveRunsCount() != 0 {
		t.Errorf("expected no active runs after finish")
	}
}

func delivery(t *testing.T, payload any) *mq.Delivery {
	t.Helper()
	body, err := json.Marshal(mq.NewMessage(mq.MessageTypeRunRequested, payload))
	if err != nil {
		t.Fatal(err)
	}
	var msg mq.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatal(err)
	}
	return &mq.Delivery{Message: msg}
}

func TestHandleRunRequested(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store})

	err := r.handleRunRequested(t.Context(), delivery(t, mq.RunRequestedPayload{Pipeline: "chain", Strategy: "kahn"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runs, _ := store.List(t.Context(), repo.RunFilter{Pipeline: "chain"})
	if len(runs) != 1 || runs[0].Trigger != domain.TriggerMQ || runs[0].Strategy != domain.StrategyInDegree {
		t.Errorf("unexpected runs: %+v", runs)
	}

	// Неудачный run подтверждается, он уже записан
	if err := r.handleRunRequested(t.Context(), delivery(t, mq.RunRequestedPayload{Pipeline: "failing"})); err != nil {
		t.Errorf("failed run should be acked, got %v", err)
	}

	for name, payload := range map[string]any{
		"unknown pipeline": mq.RunRequestedPayload{Pipeline: "missing"},
		"unknown strategy": mq.RunRequestedPayload{Pipeline: "demo", Strategy: "dfs"},
		"unknown trigger":  mq.RunRequestedPayload{Pipeline: "demo", Trigger: "webhook"},
		"bad payload":      "garbage",
	} {
		err := r.handleRunRequested(t.Context(), delivery(t, payload))
		if !mq.IsPermanent(err) {
			t.Errorf("%s: expected permanent error, got %v", name, err)
		}
	}
}

func TestRunner_HandleRunRequestedCronTrigger(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store})

	payload := mq.RunRequestedPayload{Pipeline: "chain", Trigger: string(domain.TriggerCron)}
	if err := r.handleRunRequested(t.Context(), delivery(t, payload)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, _ := store.List(t.Context(), repo.RunFilter{Pipeline: "chain"})
	if len(runs) != 1 || runs[0].Trigger != domain.TriggerCron {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestRunner_Submit(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store})

	if err := r.Submit(t.Context(), Request{Pipeline: "missing"}); !errors.Is(err, pipeline.ErrPipelineNotFound) {
		t.Fatalf("expected ErrPipelineNotFound, got %v", err)
	}

	for _, name := range []string{"chain", "failing"} {
		if err := r.Submit(t.Context(), Request{Pipeline: name, Trigger: domain.TriggerCron}); err != nil {
			t.Fatalf("Submit(%s) error = %v", name, err)
		}
	}

	// Stop дожидается фоновых runs
	r.Stop()

	runs, err := store.List(t.Context(), repo.RunFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("runs = %d, want 2", len(runs))
	}
	statuses := map[string]domain.RunStatus{}
	for _, run := range runs {
		if run.Trigger != domain.TriggerCron {
			t.Errorf("%s: trigger = %s, want cron", run.Pipeline, run.Trigger)
		}
		statuses[run.Pipeline] = run.Status
	}
	if statuses["chain"] != domain.RunStatusSucceeded || statuses["failing"] != domain.RunStatusFailed {
		t.Errorf("unexpected statuses: %v", statuses)
	}

	if err := r.Submit(t.Context(), Request{Pipeline: "chain"}); !errors.Is(err, ErrRunnerStopped) {
		t.Errorf("expected ErrRunnerStopped, got %v", err)
	}
}

func TestRunner_StopKeepsAcceptedRuns(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store, Out: &bytes.Buffer{}})

	accepted := 0
	for _, name := range []string{"demo", "chain", "failing", "diamond"} {
		if err := r.Submit(context.Background(), Request{Pipeline: name}); err != nil {
			t.Fatalf("Submit(%s) error = %v", name, err)
		}
		accepted++
	}
	r.Stop()

	runs, err := store.List(t.Context(), repo.RunFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != accepted {
		t.Fatalf("stored runs = %d, want %d", len(runs), accepted)
	}
	for _, run := range runs {
		if !run.Status.IsTerminal() {
			t.Errorf("%s: status = %s, want terminal", run.Pipeline, run.Status)
		}
	}
	if n := r.ActiveRunsCount(); n != 0 {
		t.Errorf("ActiveRunsCount() = %d after Stop", n)
	}
}

func TestRunner_SubmitRacingStop(t *testing.T) {
	store := repo.NewMemoryRunRepo()
	r := New(Config{Catalog: testCatalog(t), Store: store, Out: &bytes.Buffer{}})

	var (
		mu       sync.Mutex
		accepted int
		wg       sync.WaitGroup
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.Submit(context.Background(), Request{Pipeline: "chain"})
			switch {
			case err == nil:
				mu.Lock()
				accepted++
				mu.Unlock()
			case !errors.Is(err, ErrRunnerStopped):
				t.Errorf("Submit() error = %v", err)
			}
		}()
	}
	r.Stop()
	wg.Wait()

	runs, err := store.List(t.Context(), repo.RunFilter{Limit: 100})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(runs) != accepted {
		t.Fatalf("stored runs = %d, accepted = %d", len(runs), accepted)
	}
	for _, run := range runs {
		if run.Status != domain.RunStatusSucceeded {
			t.Errorf("run %s: status = %s", run.ID, run.Status)
		}
	}
}

func TestRunner_TaskLogsCarryTaskID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	r := New(Config{Catalog: testCatalog(t), Store: repo.NewMemoryRunRepo(), Logger: logger})

	if _, err := r.Execute(t.Context(), Request{Pipeline: "chain"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	recorded := map[string]bool{}
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var entry struct {
			Msg    string `json:"msg"`
			TaskID string `json:"task_id"`
			RunID  string `json:"run_id"`
		}
		if err := json.Unmarshal(line, &entry); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		if entry.Msg == "task recorded" {
			if entry.RunID == "" {
				t.Errorf("task %s logged without run_id", entry.TaskID)
			}
			recorded[entry.TaskID] = true
		}
	}
	if len(recorded) != 4 {
		t.Errorf("task ids logged = %v, want 4 tasks", recorded)
	}
}
