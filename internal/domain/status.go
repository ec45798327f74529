package domain

import "fmt"

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCEEDED
//	                  ↘ FAILED
//	          (или) → CANCELLED (контекст отменён до завершения обхода)
type RunStatus string

const (
	// RunStatusPending — run создан, обход графа ещё не начался.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — идёт обход графа.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusSucceeded — все достижимые задачи выполнены.
	RunStatusSucceeded RunStatus = "SUCCEEDED"

	// RunStatusFailed — callback одной из задач вернул ошибку.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusCancelled — run прерван отменой контекста.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusSucceeded, RunStatusFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// Strategy — стратегия обхода графа задач.
type Strategy string

const (
	// StrategyBreadthFirst — поэтапный обход в ширину (first-dequeue-wins).
	StrategyBreadthFirst Strategy = "bfs"

	// StrategyInDegree — уровни по алгоритму Кана (по последнему предшественнику).
	StrategyInDegree Strategy = "kahn"

	// StrategyLevelParallel — уровни Кана, задачи уровня выполняются параллельно.
	StrategyLevelParallel Strategy = "parallel"
)

// Strategies возвращает все поддерживаемые стратегии.
func Strategies() []Strategy {
	return []Strategy{StrategyBreadthFirst, StrategyInDegree, StrategyLevelParallel}
}

// ParseStrategy разбирает имя стратегии. Пустая строка означает bfs.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyBreadthFirst, nil
	case StrategyBreadthFirst, StrategyInDegree, StrategyLevelParallel:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown strategy %q (must be bfs, kahn or parallel)", s)
	}
}

// Trigger — источник запуска run.
type Trigger string

const (
	TriggerCLI  Trigger = "cli"
	TriggerMQ   Trigger = "mq"
	TriggerCron Trigger = "cron"
)
