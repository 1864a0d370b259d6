package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/google/uuid"

	"github.com/Tdill1980/wrapdash/internal/domain"
)

const maxDesignUploadBytes = 25 << 20

// DesignUpload stores a customer-supplied design file and returns the asset
// key a render request can reference via design_asset_key.
func (a *App) DesignUpload(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "upload storage is not configured")
		return
	}
	if err := r.ParseMultipartForm(maxDesignUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file field is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxDesignUploadBytes))
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "failed to read upload")
		return
	}

	key := fmt.Sprintf("designs/%s%s", uuid.NewString(), path.Ext(header.Filename))
	saved, err := a.Uploads.Write(r.Context(), key, data)
	if err != nil {
		a.Logger.Error().Err(err).Msg("handlers: store design failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store design")
		return
	}
	a.json(w, http.StatusCreated, map[string]any{
		"asset_key": saved,
		"bytes":     len(data),
		"filename":  header.Filename,
	})
}

// DesignDownload streams a stored design file back to the caller.
func (a *App) DesignDownload(w http.ResponseWriter, r *http.Request) {
	if a.Uploads == nil {
		a.error(w, http.StatusServiceUnavailable, "storage_unavailable", "upload storage is not configured")
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "key is required")
		return
	}
	data, err := a.Uploads.Read(r.Context(), key)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "design not found")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: read design failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to read design")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}
