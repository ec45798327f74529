package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
	"github.com/shaiso/taskgraph/internal/mq"
	"github.com/shaiso/taskgraph/internal/pipeline"
)

// handleRunRequested выполняет pipeline из сообщения runs.requested.
//
// Неисправимые ошибки (битый payload, неизвестный pipeline или стратегия)
// отправляют сообщение в DLQ. Неудачный run — не ошибка обработки:
// он уже записан в хранилище со статусом FAILED.
func (r *Runner) handleRunRequested(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&delivery.Message)
	if err != nil {
		return mq.Permanent(fmt.Errorf("parse run.requested payload: %w", err))
	}

	r.logger.Debug("received run.requested event",
		"pipeline", payload.Pipeline,
		"strategy", payload.Strategy,
		"trigger", payload.Trigger,
	)

	var strategy domain.Strategy
	if payload.Strategy != "" {
		strategy, err = domain.ParseStrategy(payload.Strategy)
		if err != nil {
			return mq.Permanent(err)
		}
	}

	trigger := domain.TriggerMQ
	switch domain.Trigger(payload.Trigger) {
	case "", domain.TriggerMQ:
	case domain.TriggerCron, domain.TriggerCLI:
		trigger = domain.Trigger(payload.Trigger)
	default:
		return mq.Permanent(fmt.Errorf("unknown trigger %q", payload.Trigger))
	}

	run, err := r.Execute(ctx, Request{
		Pipeline: payload.Pipeline,
		Strategy: strategy,
		Trigger:  trigger,
	})
	if run != nil {
		return nil
	}

	switch {
	case errors.Is(err, pipeline.ErrPipelineNotFound),
		errors.Is(err, engine.ErrUnknownStrategy):
		return mq.Permanent(err)
	default:
		return err
	}
}
