package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const testToken = "123:abc"

func TestClient(t *testing.T) {
	t.Run("NewClient", func(t *testing.T) {
		t.Run("defaults base URL", func(t *testing.T) {
			if c := NewClient(Options{Token: testToken}); c.baseURL != DefaultBaseURL {
				t.Errorf("expected baseURL %s, got %s", DefaultBaseURL, c.baseURL)
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			if c := NewClient(Options{BaseURL: "http://localhost:9000/"}); c.baseURL != "http://localhost:9000" {
				t.Errorf("unexpected baseURL %s", c.baseURL)
			}
		})
	})

	t.Run("missing token", func(t *testing.T) {
		c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
		ctx := context.Background()

		if _, err := c.ListUpdates(ctx); !errors.Is(err, ErrMissingToken) {
			t.Errorf("ListUpdates error = %v; want ErrMissingToken", err)
		}
		if _, err := c.DescribeFile(ctx, "x"); !errors.Is(err, ErrMissingToken) {
			t.Errorf("DescribeFile error = %v; want ErrMissingToken", err)
		}
		if _, err := c.FetchFile(ctx, "x"); !errors.Is(err, ErrMissingToken) {
			t.Errorf("FetchFile error = %v; want ErrMissingToken", err)
		}
	})

	t.Run("ListUpdates", func(t *testing.T) {
		body := `{"ok":true,"result":[
			{"update_id":1,"message":{"message_id":10,"audio":{"file_id":"A1","file_unique_id":"u1","title":"Song One","performer":"Band","thumbnail":{"file_id":"T1"}}}},
			{"update_id":2,"channel_post":{"message_id":11,"audio":{"file_id":"A2","file_unique_id":"u2"}}},
			{"update_id":3,"message":{"message_id":12}}
		]}`

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/bot"+testToken+"/getUpdates" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		}))
		defer server.Close()

		updates, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).ListUpdates(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(updates) != 3 {
			t.Fatalf("expected 3 updates, got %d", len(updates))
		}

		first := updates[0].AudioOf()
		if first == nil || first.FileID != "A1" || first.Thumbnail == nil || first.Thumbnail.FileID != "T1" {
			t.Errorf("unexpected first audio %+v", first)
		}
		if second := updates[1].AudioOf(); second == nil || second.FileUniqueID != "u2" {
			t.Errorf("expected channel post audio, got %+v", second)
		}
		if third := updates[2].AudioOf(); third != nil {
			t.Errorf("expected no audio, got %+v", third)
		}
	})

	t.Run("ListUpdates not ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error_code": 409, "description": "Conflict: webhook is active"})
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).ListUpdates(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %v", err)
		}
		if apiErr.StatusCode != 409 {
			t.Errorf("expected status 409, got %d", apiErr.StatusCode)
		}
	})

	t.Run("ListUpdates HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).ListUpdates(context.Background())
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 APIError, got %v", err)
		}
		if apiErr.Description != "Unauthorized" {
			t.Errorf("expected description, got %q", apiErr.Description)
		}
	})

	t.Run("DescribeFile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/bot"+testToken+"/getFile" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if got := r.URL.Query().Get("file_id"); got != "A1" {
				t.Errorf("expected file_id A1, got %s", got)
			}
			_, _ = io.WriteString(w, `{"ok":true,"result":{"file_id":"A1","file_unique_id":"u1","file_size":42,"file_path":"music/file_1.mp3"}}`)
		}))
		defer server.Close()

		file, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).DescribeFile(context.Background(), "A1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if file.FilePath != "music/file_1.mp3" || file.FileSize != 42 {
			t.Errorf("unexpected file %+v", file)
		}
	})

	t.Run("DescribeFile not ok", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"ok":false}`)
		}))
		defer server.Close()

		file, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).DescribeFile(context.Background(), "A1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if file.FilePath != "" {
			t.Errorf("expected empty path, got %q", file.FilePath)
		}
	})

	t.Run("FetchFile", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/file/bot"+testToken+"/music/file_1.mp3" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Length", "5")
			_, _ = io.WriteString(w, "ID3xx")
		}))
		defer server.Close()

		content, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).FetchFile(context.Background(), "music/file_1.mp3")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer content.Body.Close()

		if content.ContentLength != 5 {
			t.Errorf("expected content length 5, got %d", content.ContentLength)
		}
		data, _ := io.ReadAll(content.Body)
		if string(data) != "ID3xx" {
			t.Errorf("unexpected body %q", data)
		}
	})

	t.Run("FetchFile HTTP error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		_, err := NewClient(Options{BaseURL: server.URL, Token: testToken}).FetchFile(context.Background(), "x.mp3")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden || apiErr.Method != "file" {
			t.Fatalf("expected 403 file APIError, got %v", err)
		}
	})

	t.Run("limiter wait past deadline", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"F1","file_path":"music/a.mp3"}}`))
		}))
		defer server.Close()

		c := NewClient(Options{BaseURL: server.URL, Token: testToken, RequestsPerSecond: 0.01})
		if _, err := c.DescribeFile(context.Background(), "F1"); err != nil {
			t.Fatalf("first call: %v", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		_, err := c.DescribeFile(ctx, "F1")
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected DeadlineExceeded, got %v", err)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("expected the limited call not to reach the server, got %d calls", n)
		}
	})

	t.Run("transport errors hide the token", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewClient(Options{BaseURL: url, Token: testToken}).ListUpdates(context.Background())
		if err == nil {
			t.Fatal("expected error from closed server")
		}
		if strings.Contains(err.Error(), testToken) {
			t.Errorf("error leaks token: %v", err)
		}
	})
}

func TestAudio_Track(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		track := Audio{FileID: "A1", FileUniqueID: "u1"}.Track()
		if track.ID != "u1" || track.FileID != "A1" {
			t.Errorf("unexpected ids %+v", track)
		}
		if track.Title != "Unknown Title" || track.Artist != "Unknown Artist" || track.ThumbID != "" {
			t.Errorf("unexpected defaults %+v", track)
		}
	})

	t.Run("legacy thumb and missing unique id", func(t *testing.T) {
		track := Audio{FileID: "A9", Title: "T", Performer: "P", Thumb: &PhotoSize{FileID: "th"}}.Track()
		if track.ID != "A9" {
			t.Errorf("expected id fallback to file id, got %s", track.ID)
		}
		if track.ThumbID != "th" || track.Title != "T" || track.Artist != "P" {
			t.Errorf("unexpected track %+v", track)
		}
	})
}
