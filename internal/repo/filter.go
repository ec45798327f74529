package repo

import (
	"github.com/shaiso/taskgraph/internal/domain"
)

// defaultLimit — размер выборки List по умолчанию.
const defaultLimit = 50

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	Pipeline string
	Status   domain.RunStatus
	Limit    int
	Offset   int
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return defaultLimit
	}
	return f.Limit
}

// matches проверяет run на соответствие фильтру (без Limit/Offset).
func (f RunFilter) matches(run *domain.Run) bool {
	if f.Pipeline != "" && run.Pipeline != f.Pipeline {
		return false
	}
	if f.Status != "" && run.Status != f.Status {
		return false
	}
	return true
}

// page применяет Offset и Limit к отфильтрованному срезу.
func (f RunFilter) page(runs []domain.Run) []domain.Run {
	if f.Offset >= len(runs) {
		return []domain.Run{}
	}
	runs = runs[f.Offset:]
	if len(runs) > f.limit() {
		runs = runs[:f.limit()]
	}
	return runs
}
