package runner

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
	"github.com/shaiso/taskgraph/internal/mq"
	"github.com/shaiso/taskgraph/internal/telemetry"
)

// runObserver связывает события engine с метриками, событиями MQ
// и состоянием активного run.
type runObserver struct {
	state     *runState
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func (o *runObserver) TaskStarted(context.Context, *engine.Task) {
	o.state.taskStarted()
}

func (o *runObserver) TaskFinished(ctx context.Context, t *engine.Task, elapsed time.Duration, err error) {
	o.state.taskFinished(err)

	status := domain.RunStatusSucceeded
	errText := ""
	if err != nil {
		status = domain.RunStatusFailed
		errText = err.Error()
	}

	if o.metrics != nil {
		o.metrics.TaskFinished(string(t.Kind()), string(status), elapsed)
	}

	logger := telemetry.WithTaskID(o.logger, t.ID())
	logger.Debug("task recorded", "status", status, "duration", elapsed)

	if o.publisher == nil {
		return
	}
	pubErr := o.publisher.PublishTaskEvent(ctx, mq.TaskEventPayload{
		RunID:      o.state.runID(),
		TaskID:     t.ID(),
		TaskName:   t.Name(),
		Kind:       string(t.Kind()),
		Status:     string(status),
		Error:      errText,
		DurationMs: elapsed.Milliseconds(),
	})
	if pubErr != nil {
		logger.Warn("failed to publish task event", "error", pubErr)
	}
}
