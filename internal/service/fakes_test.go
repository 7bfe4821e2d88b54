package service_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/atinyakov/rivone/internal/models"
	"github.com/atinyakov/rivone/internal/telegram"
)

// memStore is an in-memory CatalogStore with injectable failures.
type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	puts    int
	getErr  error
	putErr  error
	lastPut map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) GetMany(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := map[string][]byte{}
	for _, k := range keys {
		if v, ok := m.data[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memStore) Put(ctx context.Context, key string, value []byte) error {
	return m.PutMany(ctx, map[string][]byte{key: value})
}

func (m *memStore) PutMany(_ context.Context, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.lastPut = values
	for k, v := range values {
		m.data[k] = v
	}
	return nil
}

func (m *memStore) set(t *testing.T, key string, tracks []models.Track) {
	t.Helper()
	b, err := json.Marshal(tracks)
	if err != nil {
		t.Fatalf("marshal %s: %v", key, err)
	}
	m.data[key] = b
}

func (m *memStore) tracks(t *testing.T, key string) []models.Track {
	t.Helper()
	raw, ok := m.data[key]
	if !ok {
		return nil
	}
	var out []models.Track
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %s: %v", key, err)
	}
	return out
}

// fakeSource implements MessageSource with function fields.
type fakeSource struct {
	ListUpdatesFunc  func(ctx context.Context) ([]telegram.Update, error)
	DescribeFileFunc func(ctx context.Context, fileID string) (*telegram.File, error)
	FetchFileFunc    func(ctx context.Context, path string) (*telegram.FileContent, error)
}

func (f *fakeSource) ListUpdates(ctx context.Context) ([]telegram.Update, error) {
	return f.ListUpdatesFunc(ctx)
}

func (f *fakeSource) DescribeFile(ctx context.Context, fileID string) (*telegram.File, error) {
	return f.DescribeFileFunc(ctx, fileID)
}

func (f *fakeSource) FetchFile(ctx context.Context, path string) (*telegram.FileContent, error) {
	return f.FetchFileFunc(ctx, path)
}

func updatesOf(audios ...telegram.Audio) func(context.Context) ([]telegram.Update, error) {
	updates := make([]telegram.Update, 0, len(audios))
	for i := range audios {
		a := audios[i]
		updates = append(updates, telegram.Update{UpdateID: int64(i + 1), Message: &telegram.Message{MessageID: int64(i + 1), Audio: &a}})
	}
	return func(context.Context) ([]telegram.Update, error) { return updates, nil }
}

func ids(tracks []models.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}
