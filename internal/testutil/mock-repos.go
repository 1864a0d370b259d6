package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// MockRunRepo is a mock of domain.RunRepository.
type MockRunRepo struct {
	mock.Mock
}

func (m *MockRunRepo) Create(ctx context.Context, run *domain.OrchestrationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockRunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.OrchestrationRun, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrchestrationRun), args.Error(1)
}

func (m *MockRunRepo) UpdateState(ctx context.Context, id uuid.UUID, status domain.RunStatus, jobs []domain.RenderJob) error {
	args := m.Called(ctx, id, status, jobs)
	return args.Error(0)
}

func (m *MockRunRepo) MarkSuperseded(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRunRepo) ClaimQueued(ctx context.Context) (*domain.OrchestrationRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OrchestrationRun), args.Error(1)
}

// MockArtifactRepo is a mock of domain.ArtifactRepository.
type MockArtifactRepo struct {
	mock.Mock
}

func (m *MockArtifactRepo) Insert(ctx context.Context, artifact *domain.Artifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}

func (m *MockArtifactRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) List(ctx context.Context, filter domain.ArtifactFilter) ([]domain.Artifact, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Artifact), args.Error(1)
}

func (m *MockArtifactRepo) MaxVersion(ctx context.Context, lineageID uuid.UUID) (int, error) {
	args := m.Called(ctx, lineageID)
	return args.Int(0), args.Error(1)
}

func (m *MockArtifactRepo) Versions(ctx context.Context, lineageID uuid.UUID) ([]domain.Artifact, error) {
	args := m.Called(ctx, lineageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Artifact), args.Error(1)
}
