package http

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/models"
)

// CatalogService defines the catalog operations required by SongsHandler.
type CatalogService interface {
	List(ctx context.Context) ([]models.Track, error)
	ListDeleted(ctx context.Context) ([]models.Track, error)
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
}

// SongsHandler serves the catalog and trash and moves tracks between them.
type SongsHandler struct {
	Catalog CatalogService
	Log     *zap.Logger
}

type idRequest struct {
	ID string `json:"id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// List handles GET /api/songs.
func (h *SongsHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Catalog.List)
}

// ListDeleted handles GET /api/songs/deleted.
func (h *SongsHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Catalog.ListDeleted)
}

func (h *SongsHandler) list(w http.ResponseWriter, r *http.Request, load func(context.Context) ([]models.Track, error)) {
	tracks, err := load(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err, http.StatusInternalServerError)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// Delete handles POST /api/songs/delete with body {"id": "..."}.
func (h *SongsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Catalog.Delete)
}

// Restore handles POST /api/songs/restore with body {"id": "..."}.
func (h *SongsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.move(w, r, h.Catalog.Restore)
}

func (h *SongsHandler) move(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	var req idRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid body"})
		return
	}

	if err := op(r.Context(), req.ID); err != nil {
		writeError(w, r, h.Log, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
