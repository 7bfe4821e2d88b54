// Package http provides the HTTP handlers and router of the catalog API.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/models"
)

// Synchronizer defines the synchronization operation required by the
// SyncHandler.
type Synchronizer interface {
	// Synchronize pulls new audio attachments into the catalog and returns
	// how many were added and the resulting catalog size.
	Synchronize(ctx context.Context) (models.SyncResult, error)
}

// SyncHandler handles HTTP requests for catalog synchronization.
type SyncHandler struct {
	SyncService Synchronizer
	Log         *zap.Logger
}

type syncResponse struct {
	Success bool `json:"success"`
	Added   int  `json:"added"`
	Total   int  `json:"total"`
}

// Sync handles POST /api/sync requests.
// It runs one synchronization pass and writes {success, added, total}.
func (h *SyncHandler) Sync(w http.ResponseWriter, r *http.Request) {
	res, err := h.SyncService.Synchronize(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{Success: true, Added: res.Added, Total: res.Total})
}
