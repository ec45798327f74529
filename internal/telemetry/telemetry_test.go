package telemetry

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"DEBUG": slog.LevelDebug,
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"ERROR": slog.LevelError,
		"INFO":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()) != slog.Default() {
		t.Error("expected default logger for empty context")
	}

	logger := slog.New(slog.DiscardHandler)
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Error("expected logger from context")
	}
}

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	t.Fatalf("metric %s not found", name)
	return nil
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RunStarted()
	m.TaskFinished("create_prompt", "succeeded", 10*time.Millisecond)
	m.TaskFinished("invoke_model", "failed", 20*time.Millisecond)
	m.RunFinished("bfs", "FAILED", 50*time.Millisecond, 2)

	runs := findMetric(t, reg, "taskgraph_runs_total")
	if len(runs.GetMetric()) != 1 || runs.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Errorf("unexpected runs_total: %v", runs)
	}

	tasks := findMetric(t, reg, "taskgraph_tasks_executed_total")
	if len(tasks.GetMetric()) != 2 {
		t.Errorf("expected 2 task series, got %d", len(tasks.GetMetric()))
	}

	active := findMetric(t, reg, "taskgraph_active_runs")
	if v := active.GetMetric()[0].GetGauge().GetValue(); v != 0 {
		t.Errorf("expected 0 active runs, got %v", v)
	}

	phases := findMetric(t, reg, "taskgraph_run_phases")
	if c := phases.GetMetric()[0].GetHistogram().GetSampleCount(); c != 1 {
		t.Errorf("expected 1 phases sample, got %d", c)
	}
}
