package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/taskgraph/internal/domain"
)

// RunRepo — репозиторий runs в PostgreSQL.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `id, pipeline, strategy, trigger, status, phases, executed,
		       task_count, started_at, finished_at, error, created_at`

// Create сохраняет новый run.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	phasesJSON, executedJSON, err := marshalResult(run)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.pool.Exec(ctx, query,
		run.ID,
		run.Pipeline,
		run.Strategy,
		run.Trigger,
		run.Status,
		phasesJSON,
		executedJSON,
		run.TaskCount,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `
		SELECT ` + runColumns + `
		FROM runs
		WHERE ($1::text IS NULL OR pipeline = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Pipeline),
		nullString(string(filter.Status)),
		filter.limit(),
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Update обновляет статус и результат run.
func (r *RunRepo) Update(ctx context.Context, run *domain.Run) error {
	phasesJSON, executedJSON, err := marshalResult(run)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET status = $2, phases = $3, executed = $4, task_count = $5,
		    started_at = $6, finished_at = $7, error = $8
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		phasesJSON,
		executedJSON,
		run.TaskCount,
		run.StartedAt,
		run.FinishedAt,
		nullString(run.Error),
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// scanRun сканирует одну строку в Run. pgx.Rows тоже реализует pgx.Row.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var phasesJSON, executedJSON []byte
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.Pipeline,
		&run.Strategy,
		&run.Trigger,
		&run.Status,
		&phasesJSON,
		&executedJSON,
		&run.TaskCount,
		&run.StartedAt,
		&run.FinishedAt,
		&runError,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if phasesJSON != nil {
		if err := json.Unmarshal(phasesJSON, &run.Phases); err != nil {
			return nil, fmt.Errorf("unmarshal phases: %w", err)
		}
	}
	if executedJSON != nil {
		if err := json.Unmarshal(executedJSON, &run.Executed); err != nil {
			return nil, fmt.Errorf("unmarshal executed: %w", err)
		}
	}
	if runError != nil {
		run.Error = *runError
	}

	return &run, nil
}

// marshalResult сериализует фазы и порядок выполнения в JSONB.
func marshalResult(run *domain.Run) (phases, executed []byte, err error) {
	if run.Phases != nil {
		if phases, err = json.Marshal(run.Phases); err != nil {
			return nil, nil, fmt.Errorf("marshal phases: %w", err)
		}
	}
	if run.Executed != nil {
		if executed, err = json.Marshal(run.Executed); err != nil {
			return nil, nil, fmt.Errorf("marshal executed: %w", err)
		}
	}
	return phases, executed, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
