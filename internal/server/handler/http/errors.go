package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/service"
)

// statusFor maps a service error to exactly one HTTP status. Upstream
// failures map to upstream, or to the platform's own 4xx/5xx status when
// relay is set.
func statusFor(err error, upstream int, relay bool) int {
	var upErr *service.UpstreamError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &upErr):
		if relay && upErr.StatusCode >= 400 && upErr.StatusCode <= 599 {
			return upErr.StatusCode
		}
		return upstream
	default:
		return http.StatusInternalServerError
	}
}

// messageFor returns the text shown to the caller. Server-side failures get
// a generic message; details stay in the log.
func messageFor(err error, status int) string {
	switch {
	case status < 500 && (errors.Is(err, service.ErrValidation) || errors.Is(err, service.ErrNotFound)):
		return err.Error()
	case errors.Is(err, service.ErrUpstreamTimeout):
		return "upstream timeout"
	case errors.Is(err, service.ErrUpstream):
		return "upstream request failed"
	case errors.Is(err, service.ErrConfiguration):
		return "server misconfigured"
	case errors.Is(err, service.ErrStore):
		return "storage unavailable"
	default:
		return "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func logFailure(log *zap.Logger, r *http.Request, status int, err error) {
	if log == nil {
		return
	}
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= 500 {
		log.Error("request failed", fields...)
		return
	}
	log.Debug("request rejected", fields...)
}

// writeError writes err as a JSON error body. Platform statuses are not
// relayed, so a rejected bot token never reads as a failed access check.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, upstream int) {
	status := statusFor(err, upstream, false)
	logFailure(log, r, status, err)
	writeJSON(w, status, errorResponse{Error: messageFor(err, status)})
}

// writePlainError writes err as a text body, for endpoints whose success
// response is not JSON. The platform's 4xx/5xx status is relayed.
func writePlainError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, upstream int) {
	status := statusFor(err, upstream, true)
	logFailure(log, r, status, err)
	http.Error(w, messageFor(err, status), status)
}
