package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics — Prometheus метрики выполнения графов.
type Metrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	runPhases    *prometheus.HistogramVec
	activeRuns   prometheus.Gauge
	tasksTotal   *prometheus.CounterVec
	taskDuration *prometheus.HistogramVec
}

// NewMetrics регистрирует метрики в reg.
// nil reg — prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgraph_runs_total",
				Help: "Total number of finished graph runs",
			},
			[]string{"strategy", "status"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgraph_run_duration_seconds",
				Help:    "Graph run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"strategy"},
		),
		runPhases: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgraph_run_phases",
				Help:    "Number of phases per graph run",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"strategy"},
		),
		activeRuns: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "taskgraph_active_runs",
				Help: "Number of graph runs in progress",
			},
		),
		tasksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgraph_tasks_executed_total",
				Help: "Total number of executed task callbacks",
			},
			[]string{"kind", "status"},
		),
		taskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgraph_task_duration_seconds",
				Help:    "Task callback duration in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"kind"},
		),
	}
}

// RunStarted увеличивает число активных runs.
func (m *Metrics) RunStarted() {
	m.activeRuns.Inc()
}

// RunFinished фиксирует завершение run.
func (m *Metrics) RunFinished(strategy, status string, d time.Duration, phases int) {
	m.activeRuns.Dec()
	m.runsTotal.WithLabelValues(strategy, status).Inc()
	m.runDuration.WithLabelValues(strategy).Observe(d.Seconds())
	m.runPhases.WithLabelValues(strategy).Observe(float64(phases))
}

// TaskFinished фиксирует выполнение callback задачи.
func (m *Metrics) TaskFinished(kind, status string, d time.Duration) {
	m.tasksTotal.WithLabelValues(kind, status).Inc()
	m.taskDuration.WithLabelValues(kind).Observe(d.Seconds())
}
