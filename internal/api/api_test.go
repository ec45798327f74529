package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/pipeline"
	"github.com/shaiso/taskgraph/internal/repo"
	"github.com/shaiso/taskgraph/internal/runner"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
	Error ErrorDetail     `json:"error"`
}

type testServer struct {
	mux    *http.ServeMux
	store  *repo.MemoryRunRepo
	runner *runner.Runner
}

func newTestServer(t *testing.T, schedules func() []domain.Schedule) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog := pipeline.Builtin()
	err := catalog.Register(&pipeline.Definition{
		Name: "failing",
		Tasks: []pipeline.TaskDef{
			{ID: "a", Kind: domain.TaskKindCreatePrompt, Action: pipeline.ActionFail, Message: "boom"},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	store := repo.NewMemoryRunRepo()
	r := runner.New(runner.Config{Catalog: catalog, Store: store, Logger: logger})

	h := NewHandler(Config{
		Catalog:   catalog,
		Runs:      store,
		Runner:    r,
		Schedules: schedules,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testServer{mux: mux, store: store, runner: r}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
		}
	}
	return rec, env
}

func TestListPipelines(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/pipelines", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if env.Total != 5 {
		t.Errorf("total = %d, want 5", env.Total)
	}

	var pipelines []PipelineResponse
	if err := json.Unmarshal(env.Data, &pipelines); err != nil {
		t.Fatal(err)
	}
	for _, p := range pipelines {
		if p.Name == "demo" && (p.Tasks != 4 || !reflect.DeepEqual(p.EntryPoints, []string{"prompt"})) {
			t.Errorf("unexpected demo: %+v", p)
		}
	}
}

func TestGetPipeline_NotFound(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/pipelines/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if env.Error.Code != ErrCodeNotFound {
		t.Errorf("code = %s, want NOT_FOUND", env.Error.Code)
	}
}

func TestPlanPipeline(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/pipelines/shortcut/plan", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var results []pipeline.PlanResult
	if err := json.Unmarshal(env.Data, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if !reflect.DeepEqual(results[0].Phases, [][]string{{"a"}, {"b", "c"}}) {
		t.Errorf("bfs phases = %v", results[0].Phases)
	}
	if !reflect.DeepEqual(results[1].Phases, [][]string{{"a"}, {"b"}, {"c"}}) {
		t.Errorf("kahn phases = %v", results[1].Phases)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/pipelines/shortcut/plan?strategy=dfs", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCreateRun_Wait(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/pipelines/chain/runs", `{"strategy":"kahn","wait":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var run domain.Run
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusSucceeded || run.Strategy != domain.StrategyInDegree {
		t.Errorf("run = %s/%s", run.Status, run.Strategy)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/runs/"+run.ID.String(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}
	var stored domain.Run
	if err := json.Unmarshal(env.Data, &stored); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stored.Executed, []string{"a", "b", "c", "d"}) {
		t.Errorf("executed = %v", stored.Executed)
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/runs?pipeline=chain&status=succeeded", "")
	if rec.Code != http.StatusOK || env.Total != 1 {
		t.Errorf("list status = %d, total = %d", rec.Code, env.Total)
	}
}

func TestCreateRun_WaitFailed(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/pipelines/failing/runs", `{"wait":true}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var run domain.Run
	if err := json.Unmarshal(env.Data, &run); err != nil {
		t.Fatal(err)
	}
	if run.Status != domain.RunStatusFailed || !strings.Contains(run.Error, "boom") {
		t.Errorf("run = %s %q", run.Status, run.Error)
	}
}

func TestCreateRun_Async(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodPost, "/api/v1/pipelines/demo/runs", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}

	var resp SubmittedResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Pipeline != "demo" || resp.Status != "QUEUED" {
		t.Errorf("response = %+v", resp)
	}

	// Stop дожидается фонового run
	s.runner.Stop()

	runs, _ := s.store.List(t.Context(), repo.RunFilter{Pipeline: "demo"})
	if len(runs) != 1 || runs[0].Status != domain.RunStatusSucceeded {
		t.Errorf("runs = %+v", runs)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/pipelines/demo/runs", "")
	if rec.Code != http.StatusServiceUnavailable || env.Error.Code != ErrCodeUnavailable {
		t.Errorf("stopped runner: status = %d, code = %s", rec.Code, env.Error.Code)
	}
}

func TestCreateRun_AsyncRunsSurviveStop(t *testing.T) {
	s := newTestServer(t, nil)

	for _, name := range []string{"demo", "failing"} {
		rec, _ := s.do(t, http.MethodPost, "/api/v1/pipelines/"+name+"/runs", "")
		if rec.Code != http.StatusAccepted {
			t.Fatalf("%s: status = %d, want 202", name, rec.Code)
		}
	}
	s.runner.Stop()

	runs, err := s.store.List(t.Context(), repo.RunFilter{})
	if err != nil {
		t.Fatal(err)
	}
	statuses := map[string]domain.RunStatus{}
	for _, run := range runs {
		statuses[run.Pipeline] = run.Status
	}
	want := map[string]domain.RunStatus{
		"demo":    domain.RunStatusSucceeded,
		"failing": domain.RunStatusFailed,
	}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
}

func TestCreateRun_BadRequests(t *testing.T) {
	s := newTestServer(t, nil)

	cases := []struct {
		name, path, body string
		want             int
	}{
		{"invalid json", "/api/v1/pipelines/demo/runs", `{`, http.StatusBadRequest},
		{"unknown strategy", "/api/v1/pipelines/demo/runs", `{"strategy":"dfs"}`, http.StatusBadRequest},
		{"unknown pipeline", "/api/v1/pipelines/missing/runs", `{"wait":true}`, http.StatusNotFound},
		{"unknown pipeline async", "/api/v1/pipelines/missing/runs", ``, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, _ := s.do(t, http.MethodPost, tc.path, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestGetRun_Errors(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/runs/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/runs/00000000-0000-0000-0000-000000000001", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListRuns_InvalidLimit(t *testing.T) {
	s := newTestServer(t, nil)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/runs?limit=-1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestListSchedules(t *testing.T) {
	s := newTestServer(t, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/schedules", "")
	if rec.Code != http.StatusOK || env.Total != 0 || string(env.Data) != "[]" {
		t.Errorf("status = %d, total = %d, data = %s", rec.Code, env.Total, env.Data)
	}

	s = newTestServer(t, func() []domain.Schedule {
		return []domain.Schedule{{Pipeline: "demo", CronExpr: "@hourly", Enabled: true}}
	})
	_, env = s.do(t, http.MethodGet, "/api/v1/schedules", "")
	if env.Total != 1 {
		t.Errorf("total = %d, want 1", env.Total)
	}
}

func TestMiddleware_RecoveryAndRequestID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Chain(RequestID(), Recovery(logger), Logging(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestResponseWriter_CapturesStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rw.WriteHeader(http.StatusTeapot)
	if rw.status != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rw.status)
	}
}
