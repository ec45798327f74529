package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shaiso/taskgraph/internal/domain"
	"github.com/shaiso/taskgraph/internal/engine"
)

// Действия задач.
const (
	ActionLog   = "log"
	ActionDelay = "delay"
	ActionFail  = "fail"
	ActionNoop  = "noop"
	ActionHTTP  = "http"
)

// Actions возвращает все известные действия.
func Actions() []string {
	return []string{ActionLog, ActionDelay, ActionFail, ActionNoop, ActionHTTP}
}

// IsKnownAction проверяет действие. Пустая строка означает log.
func IsKnownAction(action string) bool {
	switch action {
	case "", ActionLog, ActionDelay, ActionFail, ActionNoop, ActionHTTP:
		return true
	default:
		return false
	}
}

// defaultMessages — сообщения log по умолчанию для каждого типа задачи.
var defaultMessages = map[domain.TaskKind]string{
	domain.TaskKindCreatePrompt: "Creating node with blah blah...",
	domain.TaskKindParseJSON:    "Parsing json...{name}",
	domain.TaskKindInvokeModel:  "Using llm...",
	domain.TaskKindOutputData:   "Outputting data...",
}

// action возвращает callback для описания задачи.
func action(def TaskDef, env Env) (engine.TaskFunc, error) {
	switch def.Action {
	case "", ActionLog:
		msg := def.Message
		if msg == "" {
			msg = defaultMessages[def.Kind]
		}
		return logAction(msg, env), nil
	case ActionDelay:
		return delayAction(time.Duration(def.DelayMs) * time.Millisecond), nil
	case ActionFail:
		return failAction(def.Message), nil
	case ActionNoop:
		return nil, nil
	case ActionHTTP:
		return httpAction(def, env), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, def.Action)
	}
}

// logAction печатает сообщение в env.Out. {name} заменяется именем задачи.
func logAction(msg string, env Env) engine.TaskFunc {
	return func(_ context.Context, t *engine.Task) error {
		line := strings.ReplaceAll(msg, "{name}", t.Name())
		_, err := fmt.Fprintln(env.Out, line)
		return err
	}
}

// delayAction приостанавливает выполнение. Отмена контекста прерывает ожидание.
func delayAction(d time.Duration) engine.TaskFunc {
	return func(ctx context.Context, _ *engine.Task) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		}
	}
}

func failAction(msg string) engine.TaskFunc {
	return func(context.Context, *engine.Task) error {
		if msg == "" {
			return ErrActionFailed
		}
		return fmt.Errorf("%w: %s", ErrActionFailed, msg)
	}
}
