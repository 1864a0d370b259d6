package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/testutil"
)

func settledRun(id uuid.UUID) *domain.OrchestrationRun {
	return &domain.OrchestrationRun{
		ID:     id,
		Mode:   domain.RunModeFlat,
		Status: domain.RunStatusSettled,
		Params: domain.RequestParams{
			Make:      "chevy",
			Model:     "silverado",
			Year:      2021,
			Category:  "truck",
			StyleName: "Inferno Fade",
			ColorHex:  "#FF6600",
		},
		Jobs: []domain.RenderJob{
			{VariantKey: "hero", Status: domain.JobStatusComplete, ResultURL: "https://cdn.example/hero.png"},
			{VariantKey: "side", Status: domain.JobStatusComplete, ResultURL: "https://cdn.example/side.png"},
			{VariantKey: "rear", Status: domain.JobStatusError, ErrorMessage: "quota"},
		},
	}
}

func TestArtifactServiceCreateFromRun(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	runID := uuid.New()
	runRepo.On("GetByID", mock.Anything, runID).Return(settledRun(runID), nil)
	artifactRepo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(nil)

	artifact, err := svc.CreateFromRun(context.Background(), runID)
	assert.NoError(t, err)
	assert.Equal(t, 1, artifact.Version)
	assert.Equal(t, "Chevy Silverado 2021 Inferno Fade Wrap", artifact.Title)

	// only completed variants are snapshotted
	assert.Len(t, artifact.VariantResults, 2)
	assert.Equal(t, "https://cdn.example/hero.png", artifact.VariantResults["hero"])
	assert.NotContains(t, artifact.VariantResults, "rear")

	// derived color category and mode marker land in the tag set
	assert.Contains(t, artifact.Tags, "orange")
	assert.Contains(t, artifact.Tags, "flat")
	assert.Contains(t, artifact.Tags, "inferno-fade")
}

func TestArtifactServiceCreateFromUnsettledRun(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	runID := uuid.New()
	run := settledRun(runID)
	run.Jobs[1].Status = domain.JobStatusGenerating
	run.Jobs[1].ResultURL = ""
	runRepo.On("GetByID", mock.Anything, runID).Return(run, nil)

	_, err := svc.CreateFromRun(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunNotSettled)
	artifactRepo.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestArtifactServicePersistenceErrorIsRetryable(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	runID := uuid.New()
	runRepo.On("GetByID", mock.Anything, runID).Return(settledRun(runID), nil)
	artifactRepo.On("Insert", mock.Anything, mock.Anything).Return(errors.New("constraint violation"))

	_, err := svc.CreateFromRun(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestArtifactServiceCreateVersionIncrementsMax(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	lineageID := uuid.New()
	artifactID := uuid.New()
	previous := &domain.Artifact{
		ID:        artifactID,
		LineageID: lineageID,
		Subject:   domain.SubjectAttributes{Make: "chevy"},
		Title:     "Chevy Silverado",
		Tags:      []string{"chevy", "orange"},
		Version:   3,
	}
	artifactRepo.On("GetByID", mock.Anything, artifactID).Return(previous, nil)
	artifactRepo.On("MaxVersion", mock.Anything, lineageID).Return(3, nil)
	artifactRepo.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Artifact")).Return(nil)

	next, err := svc.CreateVersion(context.Background(), artifactID, map[string]string{"hero": "https://cdn.example/v4.png"}, "new accent color")
	assert.NoError(t, err)
	assert.Equal(t, 4, next.Version)
	assert.Equal(t, lineageID, next.LineageID)
	assert.NotEqual(t, previous.ID, next.ID)

	// tags are a creation-time function of the original attributes, carried
	// forward rather than recomputed
	assert.Equal(t, previous.Tags, next.Tags)
	assert.Equal(t, "new accent color", next.ChangeNote)
}

func TestArtifactServiceVersionFromRun(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	lineageID := uuid.New()
	artifactID := uuid.New()
	runID := uuid.New()
	runRepo.On("GetByID", mock.Anything, runID).Return(settledRun(runID), nil)
	artifactRepo.On("GetByID", mock.Anything, artifactID).Return(&domain.Artifact{ID: artifactID, LineageID: lineageID, Version: 1}, nil)
	artifactRepo.On("MaxVersion", mock.Anything, lineageID).Return(1, nil)
	artifactRepo.On("Insert", mock.Anything, mock.Anything).Return(nil)

	next, err := svc.VersionFromRun(context.Background(), artifactID, runID, "regenerated angles")
	assert.NoError(t, err)
	assert.Equal(t, 2, next.Version)
	assert.Len(t, next.VariantResults, 2)
}

func TestArtifactServiceVersionsResolvesLineage(t *testing.T) {
	artifactRepo := new(testutil.MockArtifactRepo)
	runRepo := new(testutil.MockRunRepo)
	svc := NewArtifactService(artifactRepo, runRepo, zerolog.Nop())

	lineageID := uuid.New()
	artifactID := uuid.New()
	artifactRepo.On("GetByID", mock.Anything, artifactID).Return(&domain.Artifact{ID: artifactID, LineageID: lineageID}, nil)
	artifactRepo.On("Versions", mock.Anything, lineageID).Return([]domain.Artifact{{Version: 2}, {Version: 1}}, nil)

	versions, err := svc.Versions(context.Background(), artifactID)
	assert.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Greater(t, versions[0].Version, versions[1].Version)
}
