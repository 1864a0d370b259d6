package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/render"
)

// ArtifactService turns settled runs into persisted, versioned artifacts.
// Persistence failures are surfaced so the caller can retry the write alone;
// generation results already recorded on the run are never discarded.
type ArtifactService struct {
	artifacts domain.ArtifactRepository
	runs      domain.RunRepository
	logger    zerolog.Logger
}

// NewArtifactService wires the artifact service.
func NewArtifactService(artifacts domain.ArtifactRepository, runs domain.RunRepository, logger zerolog.Logger) *ArtifactService {
	return &ArtifactService{artifacts: artifacts, runs: runs, logger: logger}
}

var titleCaser = cases.Title(language.English)

// CreateFromRun persists version 1 of a new artifact lineage from a settled
// run. Tags are derived once, at creation time, and never recomputed.
func (s *ArtifactService) CreateFromRun(ctx context.Context, runID uuid.UUID) (*domain.Artifact, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.Settled() {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrRunNotSettled)
	}
	results := run.VariantResults()
	if len(results) == 0 {
		return nil, fmt.Errorf("run %s produced no completed variants: %w", runID, domain.ErrRunNotSettled)
	}

	artifact := &domain.Artifact{
		ID:             uuid.New(),
		LineageID:      uuid.New(),
		Subject:        run.Params.Subject(),
		Title:          buildTitle(run.Params),
		VariantResults: results,
		Tags:           render.BuildTags(run.Params, string(run.Mode)),
		Version:        1,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.artifacts.Insert(ctx, artifact); err != nil {
		return nil, fmt.Errorf("%w: insert artifact: %v", domain.ErrPersistence, err)
	}

	s.logger.Info().
		Str("artifact_id", artifact.ID.String()).
		Str("run_id", runID.String()).
		Int("variants", len(results)).
		Msg("artifacts: created")
	return artifact, nil
}

// CreateVersion writes a new version of an existing artifact lineage with the
// given result snapshot. The next version is computed read-then-write without
// a transaction; two racing callers may compute the same number. The system
// is single-user-driven and low-frequency, so last-writer-wins is accepted.
func (s *ArtifactService) CreateVersion(ctx context.Context, artifactID uuid.UUID, results map[string]string, changeNote string) (*domain.Artifact, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("version requires at least one variant result")
	}
	previous, err := s.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	maxVersion, err := s.artifacts.MaxVersion(ctx, previous.LineageID)
	if err != nil {
		return nil, fmt.Errorf("%w: read lineage version: %v", domain.ErrPersistence, err)
	}

	next := &domain.Artifact{
		ID:             uuid.New(),
		LineageID:      previous.LineageID,
		Subject:        previous.Subject,
		Title:          previous.Title,
		VariantResults: results,
		Tags:           previous.Tags,
		Version:        maxVersion + 1,
		ChangeNote:     changeNote,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.artifacts.Insert(ctx, next); err != nil {
		return nil, fmt.Errorf("%w: insert version: %v", domain.ErrPersistence, err)
	}

	s.logger.Info().
		Str("artifact_id", next.ID.String()).
		Str("lineage_id", next.LineageID.String()).
		Int("version", next.Version).
		Msg("artifacts: new version")
	return next, nil
}

// VersionFromRun is CreateVersion fed by a settled run's completed variants.
func (s *ArtifactService) VersionFromRun(ctx context.Context, artifactID, runID uuid.UUID, changeNote string) (*domain.Artifact, error) {
	run, err := s.runs.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.Settled() {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrRunNotSettled)
	}
	return s.CreateVersion(ctx, artifactID, run.VariantResults(), changeNote)
}

// Get returns a single artifact version.
func (s *ArtifactService) Get(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	return s.artifacts.GetByID(ctx, id)
}

// List returns the newest version per lineage matching the filter.
func (s *ArtifactService) List(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	return s.artifacts.List(ctx, filter)
}

// Versions returns an artifact's lineage history, newest first.
func (s *ArtifactService) Versions(ctx context.Context, artifactID uuid.UUID) ([]domain.Artifact, error) {
	artifact, err := s.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return nil, err
	}
	return s.artifacts.Versions(ctx, artifact.LineageID)
}

func buildTitle(params domain.RequestParams) string {
	parts := make([]string, 0, 4)
	for _, raw := range []string{params.Make, params.Model} {
		if v := strings.TrimSpace(raw); v != "" {
			parts = append(parts, titleCaser.String(strings.ToLower(v)))
		}
	}
	if params.Year > 0 {
		parts = append(parts, strconv.Itoa(params.Year))
	}
	if style := strings.TrimSpace(params.StyleName); style != "" {
		parts = append(parts, titleCaser.String(strings.ToLower(style))+" Wrap")
	}
	if len(parts) == 0 {
		return "Untitled Wrap"
	}
	return strings.Join(parts, " ")
}
