package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/rivone/internal/telegram"
)

// DefaultMetadataTimeout bounds the file description call.
const DefaultMetadataTimeout = 8 * time.Second

// Stream is a resolved audio download. The caller must close Body.
type Stream struct {
	Body io.ReadCloser
	// ContentLength is -1 when unknown.
	ContentLength int64
}

// StreamService resolves file handles into byte streams in two hops:
// description (time-bounded) and download (bound to the caller's context).
type StreamService struct {
	source          MessageSource
	metadataTimeout time.Duration
	log             *zap.Logger
}

// NewStreamService constructs a StreamService. A non-positive timeout means
// DefaultMetadataTimeout.
func NewStreamService(source MessageSource, metadataTimeout time.Duration, log *zap.Logger) *StreamService {
	if metadataTimeout <= 0 {
		metadataTimeout = DefaultMetadataTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &StreamService{source: source, metadataTimeout: metadataTimeout, log: log}
}

// Resolve describes the handle and opens its bytes.
func (s *StreamService) Resolve(ctx context.Context, fileHandle string) (*Stream, error) {
	if strings.TrimSpace(fileHandle) == "" {
		return nil, fmt.Errorf("missing file id: %w", ErrValidation)
	}

	file, err := s.describe(ctx, fileHandle)
	if err != nil {
		return nil, err
	}
	if file == nil || file.FilePath == "" {
		return nil, fmt.Errorf("file %q has no path: %w", fileHandle, ErrNotFound)
	}

	content, err := s.source.FetchFile(ctx, file.FilePath)
	if err != nil {
		return nil, upstreamErr("fetch file", err)
	}
	if content == nil || content.Body == nil || content.Body == http.NoBody {
		if content != nil && content.Body != nil {
			content.Body.Close()
		}
		return nil, fmt.Errorf("empty audio stream: %w", ErrInternal)
	}

	s.log.Debug("stream resolved",
		zap.String("file_id", fileHandle),
		zap.Int64("content_length", content.ContentLength),
	)
	return &Stream{Body: content.Body, ContentLength: content.ContentLength}, nil
}

type describeResult struct {
	file *telegram.File
	err  error
}

// describe runs DescribeFile under the metadata bound. The call runs in its
// own goroutine so a source that ignores cancellation still times out.
func (s *StreamService) describe(ctx context.Context, fileHandle string) (*telegram.File, error) {
	ctx, cancel := context.WithTimeout(ctx, s.metadataTimeout)
	defer cancel()

	done := make(chan describeResult, 1)
	go func() {
		file, err := s.source.DescribeFile(ctx, fileHandle)
		done <- describeResult{file: file, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("describe file: %w", ErrUpstreamTimeout)
			}
			return nil, upstreamErr("describe file", res.err)
		}
		return res.file, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("describe file: %w", ErrUpstreamTimeout)
		}
		return nil, ctx.Err()
	}
}
