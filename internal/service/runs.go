package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/render"
)

// RunService creates orchestration runs and executes them against the render
// backend. Each execution owns a fresh tracker inside the orchestrator, so
// concurrent runs never share mutable job state.
type RunService struct {
	runs    domain.RunRepository
	orch    *render.Orchestrator
	catalog *render.Catalog
	logger  zerolog.Logger
}

// NewRunService wires the run service.
func NewRunService(runs domain.RunRepository, orch *render.Orchestrator, catalog *render.Catalog, logger zerolog.Logger) *RunService {
	return &RunService{runs: runs, orch: orch, catalog: catalog, logger: logger}
}

// StartInput describes a requested run. PlanName selects a catalog preset;
// Params.Panels optionally narrows a matrix preset to the named geometry
// panels. SupersedesID marks an earlier run as superseded, which makes its
// late-arriving results discardable.
type StartInput struct {
	PlanName     string
	Params       domain.RequestParams
	SupersedesID uuid.UUID
}

// Start validates the request and enqueues a new run for the worker.
func (s *RunService) Start(ctx context.Context, in StartInput) (*domain.OrchestrationRun, error) {
	plan, err := s.resolvePlan(in)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run := &domain.OrchestrationRun{
		ID:        uuid.New(),
		PlanName:  in.PlanName,
		Mode:      plan.Mode,
		Status:    domain.RunStatusQueued,
		Params:    in.Params,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}

	if in.SupersedesID != uuid.Nil {
		if err := s.runs.MarkSuperseded(ctx, in.SupersedesID); err != nil {
			s.logger.Warn().Err(err).
				Str("run_id", in.SupersedesID.String()).
				Msg("runs: failed to mark superseded run")
		}
	}

	s.logger.Info().
		Str("run_id", run.ID.String()).
		Str("plan", in.PlanName).
		Str("mode", string(plan.Mode)).
		Msg("runs: queued")
	return run, nil
}

// Execute drives the orchestrator for a claimed run and stores the final job
// snapshot. If the run was superseded while generation was in flight the
// snapshot is discarded rather than merged, and ErrStaleRun is returned.
func (s *RunService) Execute(ctx context.Context, run *domain.OrchestrationRun) ([]domain.RenderJob, error) {
	plan, err := s.resolvePlan(StartInput{PlanName: run.PlanName, Params: run.Params})
	if err != nil {
		return nil, err
	}

	jobs, err := s.orch.Run(ctx, run.ID, plan, run.Params)
	if err != nil {
		return nil, fmt.Errorf("orchestrate run %s: %w", run.ID, err)
	}

	current, err := s.runs.GetByID(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("reload run %s: %w", run.ID, err)
	}
	if current.Status == domain.RunStatusSuperseded {
		s.logger.Info().
			Str("run_id", run.ID.String()).
			Msg("runs: discarding results for superseded run")
		return nil, domain.ErrStaleRun
	}

	if err := s.runs.UpdateState(ctx, run.ID, domain.RunStatusSettled, jobs); err != nil {
		return nil, fmt.Errorf("store run %s snapshot: %w", run.ID, err)
	}
	return jobs, nil
}

// Get returns a run with its live job snapshot.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*domain.OrchestrationRun, error) {
	return s.runs.GetByID(ctx, id)
}

// ClaimQueued hands the oldest queued run to a worker.
func (s *RunService) ClaimQueued(ctx context.Context) (*domain.OrchestrationRun, error) {
	return s.runs.ClaimQueued(ctx)
}

// PlanNames lists the catalog presets offered to clients.
func (s *RunService) PlanNames() []string {
	return s.catalog.Names()
}

func (s *RunService) resolvePlan(in StartInput) (render.Plan, error) {
	plan, ok := s.catalog.Plan(in.PlanName)
	if !ok {
		return render.Plan{}, fmt.Errorf("plan %q: %w", in.PlanName, domain.ErrNotFound)
	}
	if len(in.Params.Panels) > 0 {
		if plan.Mode != domain.RunModeMatrix {
			return render.Plan{}, fmt.Errorf("plan %q: panel selection requires a matrix plan", in.PlanName)
		}
		plan.Panels = in.Params.Panels
	}
	if err := plan.Validate(); err != nil {
		return render.Plan{}, fmt.Errorf("plan %q: %w", in.PlanName, err)
	}
	return plan, nil
}
