// Package telegram implements the subset of the Telegram Bot API used as the
// catalog's message source: the update log and two-step file retrieval.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ErrMissingToken is returned by every call when no bot token is configured.
var ErrMissingToken = errors.New("telegram: bot token is not configured")

// APIError is a non-success answer from the Bot API.
type APIError struct {
	// Method is the Bot API method or "file" for byte downloads.
	Method string
	// StatusCode is the HTTP status (or the envelope error_code).
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("telegram %s failed (status %d): %s", e.Method, e.StatusCode, e.Description)
	}
	return fmt.Sprintf("telegram %s failed: status %d", e.Method, e.StatusCode)
}

// FileContent is an open download. The caller must close Body.
type FileContent struct {
	Body io.ReadCloser
	// ContentLength is -1 when unknown.
	ContentLength int64
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Token   string
	// HTTPClient defaults to a client whose transport bounds the wait for
	// response headers; bodies are never bounded.
	HTTPClient *http.Client
	// RequestsPerSecond limits outgoing calls; zero disables limiting.
	RequestsPerSecond float64
}

// Client talks to the Bot API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a Client. An empty token is accepted so the server can
// start; calls then fail with ErrMissingToken.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.ResponseHeaderTimeout = 30 * time.Second
		httpClient = &http.Client{Transport: transport}
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &Client{
		baseURL:    baseURL,
		token:      opts.Token,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// ListUpdates returns the update log as currently retained by the platform.
// No offset is sent, so updates are never acknowledged.
func (c *Client) ListUpdates(ctx context.Context) ([]Update, error) {
	var env envelope[[]Update]
	if err := c.call(ctx, "getUpdates", nil, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		return nil, &APIError{Method: "getUpdates", StatusCode: envelopeStatus(env.ErrorCode), Description: env.Description}
	}
	return env.Result, nil
}

// DescribeFile resolves a file handle to its download path. A 2xx answer
// with ok=false yields a File without a path.
func (c *Client) DescribeFile(ctx context.Context, fileID string) (*File, error) {
	var env envelope[File]
	if err := c.call(ctx, "getFile", url.Values{"file_id": {fileID}}, &env); err != nil {
		return nil, err
	}
	if !env.OK {
		return &File{FileID: fileID}, nil
	}
	return &env.Result, nil
}

// FetchFile opens the byte stream at a path obtained from DescribeFile.
// The download is bound to ctx only.
func (c *Client) FetchFile(ctx context.Context, filePath string) (*FileContent, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/file/bot" + c.token + "/" + strings.TrimLeft(filePath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", c.redact(err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("file request failed: %w", c.redact(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &APIError{Method: "file", StatusCode: resp.StatusCode}
	}

	return &FileContent{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

func (c *Client) call(ctx context.Context, method string, query url.Values, result any) error {
	if c.token == "" {
		return ErrMissingToken
	}
	if err := c.wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + "/bot" + c.token + "/" + method
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", c.redact(err))
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", method, c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Description string `json:"description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{Method: method, StatusCode: resp.StatusCode, Description: errResp.Description}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}

// wait blocks on the limiter. A wait that cannot finish before the deadline
// of ctx is reported as context.DeadlineExceeded.
func (c *Client) wait(ctx context.Context) error {
	err := c.limiter.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limited: %w", context.DeadlineExceeded)
	}
	return err
}

// redact strips the bot token from transport errors, which embed the URL.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, c.token, "<token>")
	}
	return err
}

func envelopeStatus(code int) int {
	if code == 0 {
		return http.StatusBadGateway
	}
	return code
}
