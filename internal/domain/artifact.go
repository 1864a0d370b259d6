package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubjectAttributes describe what was rendered.
type SubjectAttributes struct {
	Make     string `json:"make,omitempty"`
	Model    string `json:"model,omitempty"`
	Year     int    `json:"year,omitempty"`
	Category string `json:"category,omitempty"`
}

// Artifact is a persisted, versioned snapshot of a settled run. The artifact
// exclusively owns its VariantResults; later runs create new artifacts or new
// versions, never mutate an existing one.
type Artifact struct {
	ID             uuid.UUID         `json:"id"`
	LineageID      uuid.UUID         `json:"lineage_id"`
	Subject        SubjectAttributes `json:"subject_attributes"`
	Title          string            `json:"title"`
	VariantResults map[string]string `json:"variant_results"`
	Tags           []string          `json:"tags"`
	Version        int               `json:"version"`
	ChangeNote     string            `json:"change_note,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}
