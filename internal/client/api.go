// Package client is the HTTP client the CLI uses to talk to the catalog API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/atinyakov/rivone/internal/models"
)

const (
	apiSongs   = "/api/songs"
	apiDeleted = "/api/songs/deleted"
	apiDelete  = "/api/songs/delete"
	apiRestore = "/api/songs/restore"
	apiSync    = "/api/sync"
	apiStream  = "/api/stream"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// APIClient calls the catalog API. Cookie, when set, is sent as the access
// cookie (name=value).
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
	Cookie  *http.Cookie
}

// New returns an APIClient for baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client, cookie *http.Cookie) *APIClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &APIClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: httpClient, Cookie: cookie}
}

// List returns the active catalog.
func (c *APIClient) List(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	err := c.do(ctx, http.MethodGet, apiSongs, nil, &tracks)
	return tracks, err
}

// ListDeleted returns the trash.
func (c *APIClient) ListDeleted(ctx context.Context) ([]models.Track, error) {
	var tracks []models.Track
	err := c.do(ctx, http.MethodGet, apiDeleted, nil, &tracks)
	return tracks, err
}

// Sync triggers a synchronization pass.
func (c *APIClient) Sync(ctx context.Context) (models.SyncResult, error) {
	var res models.SyncResult
	err := c.do(ctx, http.MethodPost, apiSync, nil, &res)
	return res, err
}

// Delete moves a track to the trash.
func (c *APIClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, apiDelete, map[string]string{"id": id}, nil)
}

// Restore moves a track back to the catalog.
func (c *APIClient) Restore(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, apiRestore, map[string]string{"id": id}, nil)
}

// Download streams the audio behind fileID into w and returns the number of
// bytes written.
func (c *APIClient) Download(ctx context.Context, fileID string, w io.Writer) (int64, error) {
	q := url.Values{"id": {fileID}, "download": {"true"}}
	req, err := c.newRequest(ctx, http.MethodGet, apiStream+"?"+q.Encode(), nil)
	if err != nil {
		return 0, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, readAPIError(resp)
	}
	return io.Copy(w, resp.Body)
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.Cookie != nil {
		req.AddCookie(c.Cookie)
	}
	return req, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.TrimSpace(string(data))
	var e struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		msg = e.Error
		if e.Details != "" {
			msg += ": " + e.Details
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
