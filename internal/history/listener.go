package history

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/download"
)

// TitleFunc resolves a download id to a display title. It returns "" when
// the id is unknown.
type TitleFunc func(ctx context.Context, id string) string

// Listener records terminal download events. Subscribe Listen to the download
// manager after calling Start.
type Listener struct {
	*download.AsyncListener

	service *Service
	titles  TitleFunc
	logger  zerolog.Logger
}

// NewListener creates a history listener. titles may be nil.
func NewListener(service *Service, titles TitleFunc, logger zerolog.Logger) *Listener {
	l := &Listener{
		service: service,
		titles:  titles,
		logger:  logger.With().Str("component", "history-listener").Logger(),
	}
	l.AsyncListener = download.NewAsyncListener(l.record, isTerminal)
	return l
}

func isTerminal(e download.Event) bool {
	switch e.Type {
	case download.EventCompleted, download.EventFailed, download.EventCancelled:
		return true
	}
	return false
}

func (l *Listener) record(e download.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title := ""
	if l.titles != nil {
		title = l.titles(ctx, e.ID)
	}

	var err error
	switch e.Type {
	case download.EventCompleted:
		data := DownloadCompletedData{}
		if e.Result != nil {
			data.LocalPath = e.Result.LocalPath
			data.Size = e.Result.SizeBytes
			data.SizeHuman = humanize.IBytes(uint64(max(e.Result.SizeBytes, 0)))
			data.DurationMs = e.Result.DurationMs
		}
		err = l.service.LogDownloadCompleted(ctx, e.ID, title, data)
	case download.EventFailed:
		data := DownloadFailedData{}
		if e.Failure != nil {
			data.Error = e.Failure.Message
			data.RetryCount = e.Failure.RetryCount
		}
		err = l.service.LogDownloadFailed(ctx, e.ID, title, data)
	case download.EventCancelled:
		err = l.service.LogDownloadCancelled(ctx, e.ID, title)
	}
	if err != nil {
		l.logger.Error().Err(err).Str("id", e.ID).Str("type", string(e.Type)).Msg("Failed to record download history")
	}
}
