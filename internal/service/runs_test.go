package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/render"
	"github.com/Tdill1980/wrapdash/internal/testutil"
)

func testCatalog(t *testing.T) *render.Catalog {
	t.Helper()
	catalog, err := render.ParseCatalog([]byte(`
plans:
  showroom-angles:
    mode: flat
    keys: [hero, side, rear, detail]
  panel-matrix:
    mode: matrix
    angles: [hood, roof, tailgate]
    finishes: [gloss]
    environments: [studio]
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	return catalog
}

func okBackend() render.Renderer {
	return render.RendererFunc(func(ctx context.Context, req render.Request) (render.Result, error) {
		return render.Result{ImageURL: "https://cdn.example/" + req.VariantKey + ".png"}, nil
	})
}

func TestRunServiceStartQueuesRun(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	runRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.OrchestrationRun")).Return(nil)

	run, err := svc.Start(context.Background(), StartInput{
		PlanName: "showroom-angles",
		Params:   domain.RequestParams{Make: "Chevy"},
	})
	assert.NoError(t, err)
	assert.Equal(t, domain.RunStatusQueued, run.Status)
	assert.Equal(t, domain.RunModeFlat, run.Mode)
	assert.NotEqual(t, uuid.Nil, run.ID)
	runRepo.AssertExpectations(t)
}

func TestRunServiceStartUnknownPlan(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	_, err := svc.Start(context.Background(), StartInput{PlanName: "nonexistent"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	runRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRunServiceStartPanelSelectionRequiresMatrix(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	_, err := svc.Start(context.Background(), StartInput{
		PlanName: "showroom-angles",
		Params:   domain.RequestParams{Panels: []string{"hood"}},
	})
	assert.Error(t, err)
}

func TestRunServiceStartMarksSupersededRun(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	oldID := uuid.New()
	runRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	runRepo.On("MarkSuperseded", mock.Anything, oldID).Return(nil)

	_, err := svc.Start(context.Background(), StartInput{
		PlanName:     "showroom-angles",
		SupersedesID: oldID,
	})
	assert.NoError(t, err)
	runRepo.AssertCalled(t, "MarkSuperseded", mock.Anything, oldID)
}

func TestRunServiceExecuteStoresSettledSnapshot(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	run := &domain.OrchestrationRun{
		ID:       uuid.New(),
		PlanName: "showroom-angles",
		Mode:     domain.RunModeFlat,
		Status:   domain.RunStatusRunning,
	}
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	runRepo.On("UpdateState", mock.Anything, run.ID, domain.RunStatusSettled, mock.AnythingOfType("[]domain.RenderJob")).Return(nil)

	jobs, err := svc.Execute(context.Background(), run)
	assert.NoError(t, err)
	assert.Len(t, jobs, 4)
	for _, job := range jobs {
		assert.Equal(t, domain.JobStatusComplete, job.Status)
	}
	runRepo.AssertExpectations(t)
}

func TestRunServiceExecuteDiscardsStaleResults(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	run := &domain.OrchestrationRun{
		ID:       uuid.New(),
		PlanName: "showroom-angles",
		Mode:     domain.RunModeFlat,
		Status:   domain.RunStatusRunning,
	}
	superseded := *run
	superseded.Status = domain.RunStatusSuperseded
	runRepo.On("GetByID", mock.Anything, run.ID).Return(&superseded, nil)

	_, err := svc.Execute(context.Background(), run)
	assert.ErrorIs(t, err, domain.ErrStaleRun)
	runRepo.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRunServiceExecuteHonorsPanelSelection(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	svc := NewRunService(runRepo, render.NewOrchestrator(okBackend(), zerolog.Nop()), testCatalog(t), zerolog.Nop())

	run := &domain.OrchestrationRun{
		ID:       uuid.New(),
		PlanName: "panel-matrix",
		Mode:     domain.RunModeMatrix,
		Status:   domain.RunStatusRunning,
		Params:   domain.RequestParams{Panels: []string{"hood", "tailgate"}},
	}
	runRepo.On("GetByID", mock.Anything, run.ID).Return(run, nil)
	runRepo.On("UpdateState", mock.Anything, run.ID, domain.RunStatusSettled, mock.Anything).Return(nil)

	jobs, err := svc.Execute(context.Background(), run)
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)
	keys := []string{jobs[0].VariantKey, jobs[1].VariantKey}
	assert.ElementsMatch(t, []string{"hood-gloss-studio", "tailgate-gloss-studio"}, keys)
}
