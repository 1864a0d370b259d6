package render

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// Request is the invocation contract of the generation backend: the shared
// parameter bundle merged with one variant's distinguishing fields.
type Request struct {
	RunID         uuid.UUID
	VariantKey    string
	Mode          domain.RunMode
	Subject       domain.SubjectAttributes
	Params        domain.RequestParams
	VariantFields map[string]string
}

// Result carries the backend's successful response.
type Result struct {
	ImageURL string
}

// Renderer is implemented by the opaque generation backend. The call either
// resolves with an image URL or fails with an error whose message is recorded
// on the job.
type Renderer interface {
	Render(ctx context.Context, req Request) (Result, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, req Request) (Result, error)

func (f RendererFunc) Render(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Orchestrator drives generation calls for one run at a time against a fresh
// Tracker per run. A variant's failure never aborts its siblings, and a
// failed variant stays in error until the caller starts a new run.
type Orchestrator struct {
	backend Renderer
	logger  zerolog.Logger
	timeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithVariantTimeout bounds each backend call. A call that exceeds the bound
// transitions its job to error instead of leaving it generating forever.
func WithVariantTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

// NewOrchestrator builds an orchestrator around the given backend.
func NewOrchestrator(backend Renderer, logger zerolog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{backend: backend, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes the plan against a fresh tracker and returns the final job
// snapshot. Pipeline plans are awaited stage by stage and stop enumerating
// after a failed stage, leaving successors pending. Flat and matrix plans
// dispatch every variant concurrently with a settle-all join.
func (o *Orchestrator) Run(ctx context.Context, runID uuid.UUID, plan Plan, params domain.RequestParams) ([]domain.RenderJob, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	tracker := NewTracker()
	keys := plan.Enumerate()
	for _, key := range keys {
		if err := tracker.Register(key); err != nil {
			return nil, err
		}
	}

	if plan.Sequential() {
		o.runSequential(ctx, runID, plan, params, tracker, keys)
	} else {
		o.runParallel(ctx, runID, plan, params, tracker, keys)
	}
	return tracker.Snapshot(), nil
}

func (o *Orchestrator) runSequential(ctx context.Context, runID uuid.UUID, plan Plan, params domain.RequestParams, tracker *Tracker, keys []string) {
	for _, key := range keys {
		if err := o.renderVariant(ctx, runID, plan, params, tracker, key); err != nil {
			// Dependent data is missing, so later stages are never attempted.
			o.logger.Warn().
				Str("run_id", runID.String()).
				Str("variant", key).
				Msg("render: pipeline stage failed, skipping successors")
			return
		}
	}
}

func (o *Orchestrator) runParallel(ctx context.Context, runID uuid.UUID, plan Plan, params domain.RequestParams, tracker *Tracker, keys []string) {
	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_ = o.renderVariant(ctx, runID, plan, params, tracker, key)
		}(key)
	}
	wg.Wait()
}

func (o *Orchestrator) renderVariant(ctx context.Context, runID uuid.UUID, plan Plan, params domain.RequestParams, tracker *Tracker, key string) error {
	if err := tracker.MarkGenerating(key); err != nil {
		return err
	}

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	result, err := o.backend.Render(callCtx, Request{
		RunID:         runID,
		VariantKey:    key,
		Mode:          plan.Mode,
		Subject:       params.Subject(),
		Params:        params,
		VariantFields: plan.VariantFields(key),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = errors.New("generation timed out")
		}
		o.logger.Error().Err(err).
			Str("run_id", runID.String()).
			Str("variant", key).
			Msg("render: variant failed")
		_ = tracker.MarkError(key, err.Error())
		return err
	}

	o.logger.Debug().
		Str("run_id", runID.String()).
		Str("variant", key).
		Msg("render: variant complete")
	return tracker.MarkComplete(key, result.ImageURL)
}
