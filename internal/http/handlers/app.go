package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Tdill1980/wrapdash/internal/service"
	"github.com/Tdill1980/wrapdash/internal/storage"
)

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Logger    zerolog.Logger
	Runs      *service.RunService
	Artifacts *service.ArtifactService
	Uploads   *storage.FileStore
}

// NewApp constructs the handler container.
func NewApp(logger zerolog.Logger, runs *service.RunService, artifacts *service.ArtifactService, uploads *storage.FileStore) *App {
	return &App{Logger: logger, Runs: runs, Artifacts: artifacts, Uploads: uploads}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
