package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tdill1980/wrapdash/internal/domain"
	"github.com/Tdill1980/wrapdash/internal/service"
)

type startRenderRequest struct {
	Plan         string               `json:"plan"`
	Params       domain.RequestParams `json:"params"`
	SupersedesID string               `json:"supersedes_id,omitempty"`
}

type runResponse struct {
	RunID  string             `json:"run_id"`
	Plan   string             `json:"plan,omitempty"`
	Mode   domain.RunMode     `json:"mode"`
	Status domain.RunStatus   `json:"status"`
	Jobs   []domain.RenderJob `json:"jobs,omitempty"`
}

// RenderStart enqueues a new orchestration run.
func (a *App) RenderStart(w http.ResponseWriter, r *http.Request) {
	var req startRenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if req.Plan == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "plan is required")
		return
	}

	input := service.StartInput{PlanName: req.Plan, Params: req.Params}
	if req.SupersedesID != "" {
		id, err := uuid.Parse(req.SupersedesID)
		if err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid supersedes_id")
			return
		}
		input.SupersedesID = id
	}

	run, err := a.Runs.Start(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "unknown_plan", "plan not found")
			return
		}
		if errors.Is(err, domain.ErrEmptyPlan) {
			a.error(w, http.StatusBadRequest, "empty_plan", "plan enumerates no variants")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: start render failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to start render")
		return
	}
	a.json(w, http.StatusAccepted, runResponse{
		RunID:  run.ID.String(),
		Plan:   run.PlanName,
		Mode:   run.Mode,
		Status: run.Status,
	})
}

// RenderStatus returns the live job snapshot for a run.
func (a *App) RenderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := a.runID(w, r)
	if !ok {
		return
	}
	run, err := a.Runs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "run not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: load run failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load run")
		return
	}
	a.json(w, http.StatusOK, runResponse{
		RunID:  run.ID.String(),
		Plan:   run.PlanName,
		Mode:   run.Mode,
		Status: run.Status,
		Jobs:   run.Jobs,
	})
}

// RenderPersist persists a settled run as version 1 of a new artifact
// lineage. The write can be retried on its own: a persistence failure leaves
// the run's results untouched.
func (a *App) RenderPersist(w http.ResponseWriter, r *http.Request) {
	id, ok := a.runID(w, r)
	if !ok {
		return
	}
	artifact, err := a.Artifacts.CreateFromRun(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "run not found")
		case errors.Is(err, domain.ErrRunNotSettled):
			a.error(w, http.StatusConflict, "run_not_settled", "run has not settled yet")
		case errors.Is(err, domain.ErrPersistence):
			a.error(w, http.StatusBadGateway, "persistence_failed", "artifact write failed, retry without regenerating")
		default:
			a.Logger.Error().Err(err).Msg("handlers: persist artifact failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to persist artifact")
		}
		return
	}
	a.json(w, http.StatusCreated, artifact)
}

// RenderPlans lists the available plan presets.
func (a *App) RenderPlans(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"plans": a.Runs.PlanNames()})
}

func (a *App) runID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "run_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid run id")
		return uuid.Nil, false
	}
	return id, true
}
