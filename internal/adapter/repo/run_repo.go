package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// RunRepositoryPG implements domain.RunRepository backed by PostgreSQL.
type RunRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewRunRepository creates a new run repository.
func NewRunRepository(pool *pgxpool.Pool) *RunRepositoryPG {
	return &RunRepositoryPG{pool: pool}
}

// Create inserts a new run record.
func (r *RunRepositoryPG) Create(ctx context.Context, run *domain.OrchestrationRun) error {
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("encode run params: %w", err)
	}
	jobs, err := json.Marshal(run.Jobs)
	if err != nil {
		return fmt.Errorf("encode run jobs: %w", err)
	}
	query := `
INSERT INTO render_runs (id, plan_name, mode, status, params, jobs)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err = r.pool.Exec(ctx, query, run.ID, run.PlanName, run.Mode, run.Status, params, jobs)
	return err
}

// GetByID fetches a run by its identifier.
func (r *RunRepositoryPG) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrchestrationRun, error) {
	query := `
SELECT id, plan_name, mode, status, params, jobs, created_at, updated_at
FROM render_runs
WHERE id = $1;
`
	return r.scanRun(r.pool.QueryRow(ctx, query, id))
}

// UpdateState stores a fresh job snapshot and status for the run.
func (r *RunRepositoryPG) UpdateState(ctx context.Context, id uuid.UUID, status domain.RunStatus, jobs []domain.RenderJob) error {
	encoded, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode run jobs: %w", err)
	}
	query := `
UPDATE render_runs
SET status = $2,
    jobs = $3,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query, id, status, encoded)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkSuperseded flags a run so late-arriving results are discarded.
func (r *RunRepositoryPG) MarkSuperseded(ctx context.Context, id uuid.UUID) error {
	query := `
UPDATE render_runs
SET status = $2,
    updated_at = NOW()
WHERE id = $1
  AND status <> $2;
`
	_, err := r.pool.Exec(ctx, query, id, domain.RunStatusSuperseded)
	return err
}

// ClaimQueued atomically claims the oldest queued run for execution. SKIP
// LOCKED keeps multiple workers from claiming the same run.
func (r *RunRepositoryPG) ClaimQueued(ctx context.Context) (*domain.OrchestrationRun, error) {
	query := `
UPDATE render_runs
SET status = 'running',
    updated_at = NOW()
WHERE id = (
  SELECT id FROM render_runs
  WHERE status = 'queued'
  ORDER BY created_at ASC
  FOR UPDATE SKIP LOCKED
  LIMIT 1
)
RETURNING id, plan_name, mode, status, params, jobs, created_at, updated_at;
`
	return r.scanRun(r.pool.QueryRow(ctx, query))
}

func (r *RunRepositoryPG) scanRun(row pgx.Row) (*domain.OrchestrationRun, error) {
	var run domain.OrchestrationRun
	var params, jobs []byte
	if err := row.Scan(
		&run.ID,
		&run.PlanName,
		&run.Mode,
		&run.Status,
		&params,
		&jobs,
		&run.CreatedAt,
		&run.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &run.Params); err != nil {
			return nil, fmt.Errorf("decode run params: %w", err)
		}
	}
	if len(jobs) > 0 {
		if err := json.Unmarshal(jobs, &run.Jobs); err != nil {
			return nil, fmt.Errorf("decode run jobs: %w", err)
		}
	}
	return &run, nil
}
