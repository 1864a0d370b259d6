package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

// ArtifactList filters the catalog by subject fields and tag containment.
func (a *App) ArtifactList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ArtifactFilter{
		Make:     q.Get("make"),
		Model:    q.Get("model"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
	}
	artifacts, err := a.Artifacts.List(r.Context(), filter)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: list artifacts failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list artifacts")
		return
	}
	if artifacts == nil {
		artifacts = []domain.Artifact{}
	}
	a.json(w, http.StatusOK, map[string]any{"artifacts": artifacts})
}

// ArtifactGet returns one artifact version.
func (a *App) ArtifactGet(w http.ResponseWriter, r *http.Request) {
	id, ok := a.artifactID(w, r)
	if !ok {
		return
	}
	artifact, err := a.Artifacts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: load artifact failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load artifact")
		return
	}
	a.json(w, http.StatusOK, artifact)
}

// ArtifactVersions returns an artifact's version history, newest first.
func (a *App) ArtifactVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := a.artifactID(w, r)
	if !ok {
		return
	}
	versions, err := a.Artifacts.Versions(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "artifact not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: load versions failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load versions")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"versions": versions})
}

type createVersionRequest struct {
	RunID      string `json:"run_id"`
	ChangeNote string `json:"change_note,omitempty"`
}

// ArtifactCreateVersion writes a new version of an artifact lineage from a
// settled run's completed variants.
func (a *App) ArtifactCreateVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := a.artifactID(w, r)
	if !ok {
		return
	}
	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	runID, err := uuid.Parse(req.RunID)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid run_id")
		return
	}

	version, err := a.Artifacts.VersionFromRun(r.Context(), id, runID, req.ChangeNote)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			a.error(w, http.StatusNotFound, "not_found", "artifact or run not found")
		case errors.Is(err, domain.ErrRunNotSettled):
			a.error(w, http.StatusConflict, "run_not_settled", "run has not settled yet")
		case errors.Is(err, domain.ErrPersistence):
			a.error(w, http.StatusBadGateway, "persistence_failed", "version write failed, retry without regenerating")
		default:
			a.Logger.Error().Err(err).Msg("handlers: create version failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to create version")
		}
		return
	}
	a.json(w, http.StatusCreated, version)
}

func (a *App) artifactID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "artifact_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid artifact id")
		return uuid.Nil, false
	}
	return id, true
}
