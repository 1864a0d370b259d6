package domain

import (
	"context"

	"github.com/google/uuid"
)

// RunRepository persists orchestration runs so the API and worker share state.
type RunRepository interface {
	Create(ctx context.Context, run *OrchestrationRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*OrchestrationRun, error)
	UpdateState(ctx context.Context, id uuid.UUID, status RunStatus, jobs []RenderJob) error
	MarkSuperseded(ctx context.Context, id uuid.UUID) error
	ClaimQueued(ctx context.Context) (*OrchestrationRun, error)
}

// ArtifactFilter narrows artifact catalog queries. Zero-value fields are
// ignored; Tag matches containment against the tags column.
type ArtifactFilter struct {
	Make     string
	Model    string
	Category string
	Tag      string
}

// ArtifactRepository persists versioned artifacts.
type ArtifactRepository interface {
	Insert(ctx context.Context, artifact *Artifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*Artifact, error)
	List(ctx context.Context, filter ArtifactFilter) ([]Artifact, error)
	MaxVersion(ctx context.Context, lineageID uuid.UUID) (int, error)
	Versions(ctx context.Context, lineageID uuid.UUID) ([]Artifact, error)
}
