package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/atinyakov/rivone/internal/models"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	requireCookie := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie("rivon-access")
			if err != nil || c.Value != "true" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("GET /api/songs", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Track{{ID: "u1", Title: "One", Artist: "A", FileID: "F1"}})
	}))
	mux.HandleFunc("GET /api/songs/deleted", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	mux.HandleFunc("POST /api/sync", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"added":3,"total":9}`))
	}))
	mux.HandleFunc("POST /api/songs/delete", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID string `json:"id"`
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ID != "u1" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"track not found"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	mux.HandleFunc("GET /api/stream", requireCookie(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "F1" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("download") != "true" {
			t.Errorf("expected download=true")
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-bytes"))
	}))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAPIClient(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", srv.Client(), &http.Cookie{Name: "rivon-access", Value: "true"})
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		tracks, err := c.List(ctx)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(tracks) != 1 || tracks[0].FileID != "F1" {
			t.Errorf("unexpected tracks %v", tracks)
		}
	})

	t.Run("trash", func(t *testing.T) {
		tracks, err := c.ListDeleted(ctx)
		if err != nil || len(tracks) != 0 {
			t.Errorf("ListDeleted = %v, %v", tracks, err)
		}
	})

	t.Run("sync", func(t *testing.T) {
		res, err := c.Sync(ctx)
		if err != nil {
			t.Fatalf("Sync: %v", err)
		}
		if res != (models.SyncResult{Added: 3, Total: 9}) {
			t.Errorf("unexpected result %+v", res)
		}
	})

	t.Run("delete", func(t *testing.T) {
		if err := c.Delete(ctx, "u1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		err := c.Delete(ctx, "missing")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "track not found" {
			t.Errorf("expected 404 APIError, got %v", err)
		}
	})

	t.Run("download", func(t *testing.T) {
		var buf bytes.Buffer
		n, err := c.Download(ctx, "F1", &buf)
		if err != nil {
			t.Fatalf("Download: %v", err)
		}
		if n != 9 || buf.String() != "mp3-bytes" {
			t.Errorf("got %d bytes %q", n, buf.String())
		}

		_, err = c.Download(ctx, "nope", &buf)
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "not found" {
			t.Errorf("expected plain-text 404, got %v", err)
		}
	})
}

func TestAPIClient_Unauthorized(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, srv.Client(), nil)

	_, err := c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if apiErr.Error() != "server returned 401: Unauthorized" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}
