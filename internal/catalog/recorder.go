package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/download"
)

// StatusRecorder mirrors scheduler lifecycle events into the catalog's
// download status. Writes happen off the scheduler's goroutine.
type StatusRecorder struct {
	*download.AsyncListener

	svc    *Service
	logger zerolog.Logger
}

// NewStatusRecorder creates a recorder writing to svc. Call Start to begin
// processing and pass Listen to the download manager's Subscribe.
func NewStatusRecorder(svc *Service, logger zerolog.Logger) *StatusRecorder {
	r := &StatusRecorder{
		svc:    svc,
		logger: logger.With().Str("component", "status-recorder").Logger(),
	}
	r.AsyncListener = download.NewAsyncListener(r.record, download.SkipProgress)
	return r
}

func (r *StatusRecorder) record(e download.Event) {
	status, localPath, ok := statusForEvent(e)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := r.svc.UpdateDownloadStatus(ctx, e.ID, status, localPath)
	switch {
	case err == nil:
	case errors.Is(err, ErrVideoNotFound):
		// Raw downloads submitted through the API have no catalog entry.
		r.logger.Debug().Str("id", e.ID).Msg("Download has no catalog entry")
	default:
		r.logger.Error().Err(err).Str("id", e.ID).Str("status", string(status)).Msg("Failed to record download status")
	}
}

func statusForEvent(e download.Event) (DownloadStatus, string, bool) {
	switch e.Type {
	case download.EventQueued:
		return StatusQueued, "", true
	case download.EventStarted:
		return StatusDownloading, "", true
	case download.EventCompleted:
		if e.Result == nil {
			return StatusCompleted, "", true
		}
		return StatusCompleted, e.Result.LocalPath, true
	case download.EventFailed:
		return StatusFailed, "", true
	case download.EventCancelled:
		return StatusNotDownloaded, "", true
	}
	return "", "", false
}
