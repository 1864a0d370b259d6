package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunMode selects how variant keys are enumerated and dispatched.
type RunMode string

const (
	RunModeFlat     RunMode = "flat"
	RunModeMatrix   RunMode = "matrix"
	RunModePipeline RunMode = "pipeline"
)

// RunStatus enumerates orchestration run lifecycle states.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusRunning    RunStatus = "running"
	RunStatusSettled    RunStatus = "settled"
	RunStatusSuperseded RunStatus = "superseded"
)

// JobStatus enumerates per-variant render job states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusGenerating JobStatus = "generating"
	JobStatusComplete   JobStatus = "complete"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether the status can no longer change within a run.
func (s JobStatus) Terminal() bool {
	return s == JobStatusComplete || s == JobStatusError
}

// RenderJob is the tracked state of one variant within a run. Once the job
// leaves pending/generating exactly one of ResultURL or ErrorMessage is set.
type RenderJob struct {
	VariantKey   string    `json:"variant_key"`
	Status       JobStatus `json:"status"`
	ResultURL    string    `json:"result_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// RequestParams is the shared input bundle common to every job in a run.
type RequestParams struct {
	Make           string `json:"make,omitempty"`
	Model          string `json:"model,omitempty"`
	Year           int    `json:"year,omitempty"`
	Category       string `json:"category,omitempty"`
	StyleName      string `json:"style_name,omitempty"`
	FinishType     string `json:"finish_type,omitempty"`
	ColorHex       string `json:"color_hex,omitempty"`
	DesignAssetKey string `json:"design_asset_key,omitempty"`
	Notes          string `json:"notes,omitempty"`
	// Panels optionally narrows a matrix plan to the named geometry panels.
	Panels []string `json:"panels,omitempty"`
}

// Subject extracts the denormalized identity fields persisted with artifacts.
func (p RequestParams) Subject() SubjectAttributes {
	return SubjectAttributes{
		Make:     p.Make,
		Model:    p.Model,
		Year:     p.Year,
		Category: p.Category,
	}
}

// OrchestrationRun groups the render jobs produced from one request.
type OrchestrationRun struct {
	ID        uuid.UUID     `json:"id"`
	PlanName  string        `json:"plan_name,omitempty"`
	Mode      RunMode       `json:"mode"`
	Status    RunStatus     `json:"status"`
	Params    RequestParams `json:"params"`
	Jobs      []RenderJob   `json:"jobs"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Settled reports whether the run has finished processing: no job is still
// generating and at least one reached a terminal state. Jobs left pending
// behind a failed pipeline stage do not keep a run unsettled.
func (r *OrchestrationRun) Settled() bool {
	if len(r.Jobs) == 0 {
		return false
	}
	terminal := 0
	for _, job := range r.Jobs {
		if job.Status == JobStatusGenerating {
			return false
		}
		if job.Status.Terminal() {
			terminal++
		}
	}
	return terminal > 0
}

// VariantResults returns the result URLs of every completed job.
func (r *OrchestrationRun) VariantResults() map[string]string {
	results := make(map[string]string)
	for _, job := range r.Jobs {
		if job.Status == JobStatusComplete {
			results[job.VariantKey] = job.ResultURL
		}
	}
	return results
}
