package render

import (
	"fmt"
	"sync"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// Tracker holds the job state for exactly one orchestration run. It is owned
// by that run and never shared across runs; the mutex only guards sibling
// goroutines of a parallel fan-out. Transitions are one-directional: a job in
// complete or error is never re-transitioned, a retry is a new run.
type Tracker struct {
	mu    sync.Mutex
	order []string
	jobs  map[string]*domain.RenderJob
}

// NewTracker returns an empty tracker for a fresh run.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*domain.RenderJob)}
}

// Register creates a pending job for the variant key.
func (t *Tracker) Register(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.jobs[key]; ok {
		return fmt.Errorf("%w: %q", domain.ErrDuplicateVariant, key)
	}
	t.jobs[key] = &domain.RenderJob{VariantKey: key, Status: domain.JobStatusPending}
	t.order = append(t.order, key)
	return nil
}

// MarkGenerating moves a pending job into generating.
func (t *Tracker) MarkGenerating(key string) error {
	return t.transition(key, domain.JobStatusPending, func(job *domain.RenderJob) {
		job.Status = domain.JobStatusGenerating
	})
}

// MarkComplete records the result URL for a generating job.
func (t *Tracker) MarkComplete(key, resultURL string) error {
	return t.transition(key, domain.JobStatusGenerating, func(job *domain.RenderJob) {
		job.Status = domain.JobStatusComplete
		job.ResultURL = resultURL
	})
}

// MarkError records the failure message for a generating job.
func (t *Tracker) MarkError(key, message string) error {
	return t.transition(key, domain.JobStatusGenerating, func(job *domain.RenderJob) {
		job.Status = domain.JobStatusError
		job.ErrorMessage = message
	})
}

func (t *Tracker) transition(key string, from domain.JobStatus, apply func(*domain.RenderJob)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[key]
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownVariant, key)
	}
	if job.Status != from {
		return fmt.Errorf("%w: %q is %s", domain.ErrInvalidTransition, key, job.Status)
	}
	apply(job)
	return nil
}

// Status returns the current status of one job.
func (t *Tracker) Status(key string) (domain.JobStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	job, ok := t.jobs[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownVariant, key)
	}
	return job.Status, nil
}

// Snapshot returns all jobs in registration order as value copies.
func (t *Tracker) Snapshot() []domain.RenderJob {
	t.mu.Lock()
	defer t.mu.Unlock()
	jobs := make([]domain.RenderJob, 0, len(t.order))
	for _, key := range t.order {
		jobs = append(jobs, *t.jobs[key])
	}
	return jobs
}

// Settled reports whether no job remains in generating and at least one job
// reached a terminal state.
func (t *Tracker) Settled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	terminal := 0
	for _, job := range t.jobs {
		if job.Status == domain.JobStatusGenerating {
			return false
		}
		if job.Status.Terminal() {
			terminal++
		}
	}
	return terminal > 0
}
