package service

import (
	"errors"
	"fmt"

	"github.com/atinyakov/rivone/internal/telegram"
)

var (
	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("invalid request")
	// ErrNotFound marks a missing track or an unresolvable file handle.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamTimeout marks a metadata call that exceeded its bound.
	ErrUpstreamTimeout = errors.New("upstream timeout")
	// ErrUpstream marks any other message source failure.
	ErrUpstream = errors.New("upstream failure")
	// ErrConfiguration marks a missing required secret.
	ErrConfiguration = errors.New("configuration error")
	// ErrStore marks a catalog store read or write failure.
	ErrStore = errors.New("store failure")
	// ErrInternal marks an unexpected condition, such as an empty body.
	ErrInternal = errors.New("internal error")
)

// UpstreamError wraps a message source failure. StatusCode is zero when the
// platform never answered.
type UpstreamError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
}

// upstreamErr classifies a message source failure.
func upstreamErr(op string, err error) error {
	if errors.Is(err, telegram.ErrMissingToken) {
		return fmt.Errorf("%s: %w: %w", op, ErrConfiguration, err)
	}
	var apiErr *telegram.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Op: op, StatusCode: apiErr.StatusCode, Err: err}
	}
	return &UpstreamError{Op: op, Err: err}
}
