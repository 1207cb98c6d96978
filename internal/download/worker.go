package download

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

const (
	// TempSuffix is appended to the final path while a download is in flight.
	TempSuffix = ".download"

	readBufferSize = 32 * 1024
)

// Worker performs single download attempts. It is safe for concurrent use;
// each call to Download streams one request.
type Worker struct {
	client   *http.Client
	bus      *Bus
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewWorker creates a worker that publishes progress samples on bus.
func NewWorker(client *http.Client, bus *Bus, interval time.Duration, logger zerolog.Logger) *Worker {
	if client == nil {
		client = http.DefaultClient
	}
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	return &Worker{
		client:   client,
		bus:      bus,
		interval: interval,
		now:      time.Now,
		logger:   logger.With().Str("component", "download-worker").Logger(),
	}
}

// TempPath returns the in-flight path for a final output path.
func TempPath(finalPath string) string {
	return finalPath + TempSuffix
}

// Download fetches req into dir and returns the outcome without publishing a
// terminal event. Once the rename to the final path succeeds the download is
// complete and a late cancellation is ignored. If ctx is cancelled before that
// it removes the temporary file and returns ErrCancelled. Any other failure
// removes the temporary file and is returned for retry evaluation.
func (w *Worker) Download(ctx context.Context, dir string, req Request) (Result, error) {
	start := w.now()
	finalPath := filepath.Join(dir, req.Filename)
	tempPath := TempPath(finalPath)

	size, err := w.fetch(ctx, req, tempPath)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		if renameErr := os.Rename(tempPath, finalPath); renameErr != nil {
			err = &FilesystemError{Op: "rename", Path: finalPath, Err: renameErr}
		}
	}

	if err == nil {
		result := Result{
			ID:         req.ID,
			LocalPath:  finalPath,
			SizeBytes:  size,
			DurationMs: w.now().Sub(start).Milliseconds(),
		}
		w.logger.Debug().
			Str("id", req.ID).
			Str("path", finalPath).
			Str("size", humanize.Bytes(uint64(size))).
			Int64("durationMs", result.DurationMs).
			Msg("Download finished")
		return result, nil
	}

	removeTemp(tempPath, w.logger)

	if ctx.Err() != nil {
		return Result{}, ErrCancelled
	}
	return Result{}, err
}

// fetch streams the response body into tempPath and returns the byte count.
func (w *Worker) fetch(ctx context.Context, req Request, tempPath string) (int64, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, &TransportError{Err: err}
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return 0, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, &HTTPStatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var total *int64
	if resp.ContentLength >= 0 {
		cl := resp.ContentLength
		total = &cl
	}

	f, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, &FilesystemError{Op: "create", Path: tempPath, Err: err}
	}

	written, err := w.stream(ctx, f, resp.Body, req.ID, total, tempPath)
	if err != nil {
		f.Close()
		return written, err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return written, &FilesystemError{Op: "sync", Path: tempPath, Err: err}
	}
	if err := f.Close(); err != nil {
		return written, &FilesystemError{Op: "close", Path: tempPath, Err: err}
	}

	return written, nil
}

// stream copies body to f, publishing throttled progress samples.
func (w *Worker) stream(ctx context.Context, f *os.File, body io.Reader, id string, total *int64, tempPath string) (int64, error) {
	buf := make([]byte, readBufferSize)
	s := newSampler(id, total, w.interval, w.now())

	var downloaded int64
	for {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return downloaded, &FilesystemError{Op: "write", Path: tempPath, Err: err}
			}
			downloaded += int64(n)

			if p, ok := s.observe(downloaded, w.now()); ok {
				w.bus.Publish(progressEvent(p))
			}
		}

		if errors.Is(readErr, io.EOF) {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, &TransportError{Err: readErr}
		}
	}
}

func removeTemp(path string, logger zerolog.Logger) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to remove temporary file")
	}
}
