// Package service implements catalog synchronization, catalog mutation and
// the streaming proxy, delegating persistence to a CatalogStore and file
// access to a MessageSource.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atinyakov/rivone/internal/models"
	"github.com/atinyakov/rivone/internal/telegram"
)

// CatalogStore is the key/value capability holding the JSON collections.
type CatalogStore interface {
	// Get returns the raw value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	// GetMany returns the values of the keys that exist.
	GetMany(ctx context.Context, keys []string) (map[string][]byte, error)
	// Put replaces the value of key.
	Put(ctx context.Context, key string, value []byte) error
	// PutMany replaces several keys in one write.
	PutMany(ctx context.Context, values map[string][]byte) error
}

// MessageSource is the messaging platform used both as discovery log and as
// blob storage.
type MessageSource interface {
	// ListUpdates returns the current update log.
	ListUpdates(ctx context.Context) ([]telegram.Update, error)
	// DescribeFile resolves a handle to a download path.
	DescribeFile(ctx context.Context, fileID string) (*telegram.File, error)
	// FetchFile opens the bytes at path.
	FetchFile(ctx context.Context, path string) (*telegram.FileContent, error)
}

// trackStore reads and writes track collections on top of a CatalogStore.
type trackStore struct {
	kv CatalogStore
}

func (s trackStore) load(ctx context.Context, key string) ([]models.Track, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, storeErr("load "+key, err)
	}
	if !ok {
		return []models.Track{}, nil
	}
	return decodeTracks(key, raw)
}

// loadBoth returns the catalog and the trash read in one call.
func (s trackStore) loadBoth(ctx context.Context) (catalog, trash []models.Track, err error) {
	raw, err := s.kv.GetMany(ctx, []string{models.CatalogKey, models.TrashKey})
	if err != nil {
		return nil, nil, storeErr("load collections", err)
	}
	catalog = []models.Track{}
	trash = []models.Track{}
	if b, ok := raw[models.CatalogKey]; ok {
		if catalog, err = decodeTracks(models.CatalogKey, b); err != nil {
			return nil, nil, err
		}
	}
	if b, ok := raw[models.TrashKey]; ok {
		if trash, err = decodeTracks(models.TrashKey, b); err != nil {
			return nil, nil, err
		}
	}
	return catalog, trash, nil
}

func (s trackStore) save(ctx context.Context, key string, tracks []models.Track) error {
	b, err := encodeTracks(tracks)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, key, b); err != nil {
		return storeErr("save "+key, err)
	}
	return nil
}

func (s trackStore) saveBoth(ctx context.Context, catalog, trash []models.Track) error {
	catalogJSON, err := encodeTracks(catalog)
	if err != nil {
		return err
	}
	trashJSON, err := encodeTracks(trash)
	if err != nil {
		return err
	}
	err = s.kv.PutMany(ctx, map[string][]byte{
		models.CatalogKey: catalogJSON,
		models.TrashKey:   trashJSON,
	})
	if err != nil {
		return storeErr("save collections", err)
	}
	return nil
}

func decodeTracks(key string, raw []byte) ([]models.Track, error) {
	tracks := []models.Track{}
	if len(raw) == 0 || string(raw) == "null" {
		return tracks, nil
	}
	if err := json.Unmarshal(raw, &tracks); err != nil {
		return nil, storeErr("decode "+key, err)
	}
	return tracks, nil
}

func encodeTracks(tracks []models.Track) ([]byte, error) {
	if tracks == nil {
		tracks = []models.Track{}
	}
	b, err := json.Marshal(tracks)
	if err != nil {
		return nil, fmt.Errorf("encode tracks: %w", err)
	}
	return b, nil
}
