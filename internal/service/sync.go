package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/models"
)

// SyncService turns the message source update log into catalog entries.
type SyncService struct {
	source MessageSource
	tracks trackStore
	log    *zap.Logger
}

// NewSyncService constructs a SyncService. A nil logger disables logging.
func NewSyncService(source MessageSource, store CatalogStore, log *zap.Logger) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{source: source, tracks: trackStore{kv: store}, log: log}
}

// Synchronize pulls the update log and appends every newly seen audio
// attachment to the catalog. Tracks in the trash are never re-added. The
// catalog is written at most once and only when it changed; any failure
// leaves it untouched.
func (s *SyncService) Synchronize(ctx context.Context) (models.SyncResult, error) {
	updates, err := s.source.ListUpdates(ctx)
	if err != nil {
		return models.SyncResult{}, upstreamErr("list updates", err)
	}

	trash, err := s.tracks.load(ctx, models.TrashKey)
	if err != nil {
		return models.SyncResult{}, err
	}
	trashed := models.IDSet(trash)

	seenFiles := make(map[string]struct{})
	candidateAt := make(map[string]int)
	var candidates []models.Track
	for _, u := range updates {
		audio := u.AudioOf()
		if audio == nil || audio.FileID == "" {
			continue
		}
		if _, dup := seenFiles[audio.FileID]; dup {
			continue
		}
		seenFiles[audio.FileID] = struct{}{}

		track := audio.Track()
		if _, deleted := trashed[track.ID]; deleted {
			continue
		}
		if i, dup := candidateAt[track.ID]; dup {
			// The log is oldest first; the latest handle wins.
			candidates[i].FileID = track.FileID
			if track.ThumbID != "" {
				candidates[i].ThumbID = track.ThumbID
			}
			continue
		}
		candidateAt[track.ID] = len(candidates)
		candidates = append(candidates, track)
	}

	catalog, err := s.tracks.load(ctx, models.CatalogKey)
	if err != nil {
		return models.SyncResult{}, err
	}

	byFile := make(map[string]struct{}, len(catalog))
	byID := make(map[string]int, len(catalog))
	for i, t := range catalog {
		byFile[t.FileID] = struct{}{}
		byID[t.ID] = i
	}

	added, refreshed := 0, 0
	for _, c := range candidates {
		if _, ok := byFile[c.FileID]; ok {
			continue
		}
		if i, ok := byID[c.ID]; ok {
			// Same attachment under a reissued handle.
			catalog[i].FileID = c.FileID
			if c.ThumbID != "" {
				catalog[i].ThumbID = c.ThumbID
			}
			byFile[c.FileID] = struct{}{}
			refreshed++
			continue
		}
		catalog = append(catalog, c)
		byFile[c.FileID] = struct{}{}
		byID[c.ID] = len(catalog) - 1
		added++
	}

	if added > 0 || refreshed > 0 {
		if err := s.tracks.save(ctx, models.CatalogKey, catalog); err != nil {
			return models.SyncResult{}, err
		}
	}

	s.log.Debug("catalog synchronized",
		zap.Int("updates", len(updates)),
		zap.Int("added", added),
		zap.Int("refreshed", refreshed),
		zap.Int("total", len(catalog)),
	)

	return models.SyncResult{Added: added, Total: len(catalog)}, nil
}
