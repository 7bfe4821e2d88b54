package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/service"
)

// StreamResolver opens the audio bytes behind a file handle.
type StreamResolver interface {
	Resolve(ctx context.Context, fileHandle string) (*service.Stream, error)
}

// StreamHandler proxies audio downloads so the bot token never reaches the
// client.
type StreamHandler struct {
	Streams StreamResolver
	Log     *zap.Logger
}

// Stream handles GET /api/stream?id=<fileId>[&download=true].
//
// The body is relayed unmodified as audio/mpeg. Errors are plain text.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	stream, err := h.Streams.Resolve(r.Context(), q.Get("id"))
	if err != nil {
		writePlainError(w, r, h.Log, err, http.StatusBadGateway)
		return
	}
	defer stream.Body.Close()

	hdr := w.Header()
	hdr.Set("Content-Type", "audio/mpeg")
	hdr.Set("Cache-Control", "public, max-age=3600")
	if stream.ContentLength >= 0 {
		hdr.Set("Content-Length", strconv.FormatInt(stream.ContentLength, 10))
	}
	if q.Get("download") == "true" {
		hdr.Set("Content-Disposition", `attachment; filename="music.mp3"`)
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, stream.Body); err != nil && r.Context().Err() == nil && h.Log != nil {
		h.Log.Warn("stream relay interrupted", zap.String("file_id", q.Get("id")), zap.Error(err))
	}
}
