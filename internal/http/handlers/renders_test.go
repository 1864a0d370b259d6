package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/render"
	"github.com/Tdill1980/wrapdash/internal/service"
	"github.com/Tdill1980/wrapdash/internal/testutil"
)

func newTestApp(t *testing.T, runRepo *testutil.MockRunRepo, artifactRepo *testutil.MockArtifactRepo) *App {
	t.Helper()
	catalog, err := render.ParseCatalog([]byte(`
plans:
  showroom-angles:
    mode: flat
    keys: [hero, side, rear, detail]
`))
	if err != nil {
		t.Fatalf("ParseCatalog: %v", err)
	}
	backend := render.RendererFunc(func(ctx context.Context, req render.Request) (render.Result, error) {
		return render.Result{ImageURL: "https://cdn.example/" + req.VariantKey + ".png"}, nil
	})
	orch := render.NewOrchestrator(backend, zerolog.Nop())
	runs := service.NewRunService(runRepo, orch, catalog, zerolog.Nop())
	artifacts := service.NewArtifactService(artifactRepo, runRepo, zerolog.Nop())
	return NewApp(zerolog.Nop(), runs, artifacts, nil)
}

func TestRenderStartAcceptsRun(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	app := newTestApp(t, runRepo, new(testutil.MockArtifactRepo))
	runRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	body := `{"plan":"showroom-angles","params":{"make":"Chevy","model":"Silverado"}}`
	req := httptest.NewRequest(http.MethodPost, "/v1/renders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.RenderStart(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var resp map[string]any
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "queued", resp["status"])
	assert.NotEmpty(t, resp["run_id"])
}

func TestRenderStartUnknownPlan(t *testing.T) {
	app := newTestApp(t, new(testutil.MockRunRepo), new(testutil.MockArtifactRepo))

	body := `{"plan":"nope"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/renders", strings.NewReader(body))
	rec := httptest.NewRecorder()
	app.RenderStart(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown_plan")
}

func TestRenderStartRejectsMissingPlan(t *testing.T) {
	app := newTestApp(t, new(testutil.MockRunRepo), new(testutil.MockArtifactRepo))

	req := httptest.NewRequest(http.MethodPost, "/v1/renders", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	app.RenderStart(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRenderPersistConflictBeforeSettlement(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	app := newTestApp(t, runRepo, new(testutil.MockArtifactRepo))

	runID := uuid.New()
	runRepo.On("GetByID", mock.Anything, runID).Return(&domain.OrchestrationRun{
		ID:     runID,
		Status: domain.RunStatusRunning,
		Jobs: []domain.RenderJob{
			{VariantKey: "hero", Status: domain.JobStatusGenerating},
		},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/renders/"+runID.String()+"/artifact", nil)
	req = withURLParam(req, "run_id", runID.String())
	rec := httptest.NewRecorder()
	app.RenderPersist(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "run_not_settled")
}

func TestRenderStatusNotFound(t *testing.T) {
	runRepo := new(testutil.MockRunRepo)
	app := newTestApp(t, runRepo, new(testutil.MockArtifactRepo))

	runID := uuid.New()
	runRepo.On("GetByID", mock.Anything, runID).Return(nil, domain.ErrNotFound)

	req := httptest.NewRequest(http.MethodGet, "/v1/renders/"+runID.String(), nil)
	req = withURLParam(req, "run_id", runID.String())
	rec := httptest.NewRecorder()
	app.RenderStatus(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
