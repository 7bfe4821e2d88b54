package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/models"
)

// Seeder writes an initial catalog.
type Seeder interface {
	Seed(ctx context.Context, tracks []models.Track) (models.SeedResult, error)
}

// MigrateHandler imports the seed file into an empty catalog.
type MigrateHandler struct {
	Seeder   Seeder
	SeedFile string
	Log      *zap.Logger
}

type migrateResponse struct {
	Success       bool   `json:"success,omitempty"`
	Message       string `json:"message"`
	MigratedCount *int   `json:"migratedCount,omitempty"`
	Count         *int   `json:"count,omitempty"`
}

// Migrate handles GET /api/migrate. It is a diagnostic endpoint: failures
// echo their details to the caller.
func (h *MigrateHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	tracks, err := readSeed(h.SeedFile)
	if err == nil {
		var res models.SeedResult
		res, err = h.Seeder.Seed(r.Context(), tracks)
		if err == nil {
			if res.Skipped {
				writeJSON(w, http.StatusOK, migrateResponse{Message: "Data already exists", Count: &res.Existing})
				return
			}
			if h.Log != nil {
				h.Log.Info("catalog seeded", zap.Int("migrated", res.Migrated), zap.String("file", h.SeedFile))
			}
			writeJSON(w, http.StatusOK, migrateResponse{
				Success:       true,
				Message:       "Migration completed",
				MigratedCount: &res.Migrated,
			})
			return
		}
	}

	logFailure(h.Log, r, http.StatusInternalServerError, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Migration failed", Details: err.Error()})
}

func readSeed(path string) ([]models.Track, error) {
	if path == "" {
		return nil, fmt.Errorf("seed file is not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var tracks []models.Track
	if err := json.Unmarshal(data, &tracks); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return tracks, nil
}
