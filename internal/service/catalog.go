package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/atinyakov/rivone/internal/models"
)

// CatalogService moves tracks between the catalog and the trash. A track is
// always a member of exactly one of the two collections.
type CatalogService struct {
	tracks trackStore
}

// NewCatalogService constructs a CatalogService over the given store.
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{tracks: trackStore{kv: store}}
}

// List returns the active catalog.
func (s *CatalogService) List(ctx context.Context) ([]models.Track, error) {
	return s.tracks.load(ctx, models.CatalogKey)
}

// ListDeleted returns the trash.
func (s *CatalogService) ListDeleted(ctx context.Context) ([]models.Track, error) {
	return s.tracks.load(ctx, models.TrashKey)
}

// Delete moves the track from the catalog to the trash. It fails with
// ErrNotFound, writing nothing, when the id is not in the catalog.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	return s.move(ctx, id, false)
}

// Restore moves the track from the trash back to the catalog. It fails with
// ErrNotFound, writing nothing, when the id is not in the trash.
func (s *CatalogService) Restore(ctx context.Context, id string) error {
	return s.move(ctx, id, true)
}

func (s *CatalogService) move(ctx context.Context, id string, restore bool) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("track id is required: %w", ErrValidation)
	}

	catalog, trash, err := s.tracks.loadBoth(ctx)
	if err != nil {
		return err
	}

	from, to := catalog, trash
	if restore {
		from, to = trash, catalog
	}

	i := models.IndexOf(from, id)
	if i < 0 {
		if restore {
			return fmt.Errorf("track %q not in trash: %w", id, ErrNotFound)
		}
		return fmt.Errorf("track %q not in catalog: %w", id, ErrNotFound)
	}

	track := from[i]
	from = models.Remove(from, i)
	if !models.Contains(to, id) {
		to = append(to, track)
	}

	if restore {
		return s.tracks.saveBoth(ctx, to, from)
	}
	return s.tracks.saveBoth(ctx, from, to)
}

// Seed writes tracks as the initial catalog unless the catalog already
// holds data. Duplicate ids and ids present in the trash are dropped.
func (s *CatalogService) Seed(ctx context.Context, tracks []models.Track) (models.SeedResult, error) {
	catalog, trash, err := s.tracks.loadBoth(ctx)
	if err != nil {
		return models.SeedResult{}, err
	}
	if len(catalog) > 0 {
		return models.SeedResult{Skipped: true, Existing: len(catalog)}, nil
	}

	skip := models.IDSet(trash)
	seed := make([]models.Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ID == "" || t.FileID == "" {
			continue
		}
		if _, ok := skip[t.ID]; ok {
			continue
		}
		skip[t.ID] = struct{}{}
		seed = append(seed, t.Normalize())
	}

	if err := s.tracks.save(ctx, models.CatalogKey, seed); err != nil {
		return models.SeedResult{}, err
	}
	return models.SeedResult{Migrated: len(seed)}, nil
}
