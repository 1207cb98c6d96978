package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/reelvault/reelvault/internal/download"
)

var formatExtensions = map[string]string{
	"h.264":       "mp4",
	"MPEG4":       "mp4",
	"512Kb MPEG4": "mp4",
	"WebM":        "webm",
	"Ogg Video":   "ogv",
	"Cinepack":    "avi",
	"MPEG2":       "mpg",
}

// ExtensionForFormat maps an archive file format to a file extension.
// Unknown formats default to mp4.
func ExtensionForFormat(format string) string {
	if ext, ok := formatExtensions[format]; ok {
		return ext
	}
	return "mp4"
}

// SafeTitle lowercases title and replaces every character outside [a-z0-9]
// with an underscore.
func SafeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename returns the local file name for v.
func Filename(v *Video) string {
	return fmt.Sprintf("%s_%s.%s", SafeTitle(v.Title), v.ID, ExtensionForFormat(v.PrimaryFormat))
}

// DownloadVideo submits v to the download scheduler and returns its queue
// position.
func (s *Service) DownloadVideo(ctx context.Context, id string, priority int) (int, error) {
	if s.downloader == nil {
		return 0, ErrDownloadsOffline
	}

	v, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if v.PrimaryVideoURL == "" {
		return 0, ErrNoVideoFile
	}

	req := download.Request{
		ID:       v.ID,
		URL:      v.PrimaryVideoURL,
		Filename: Filename(v),
		Priority: priority,
	}

	// Mark queued first so the recorder's later transitions win.
	previous := v.DownloadStatus
	if err := s.UpdateDownloadStatus(ctx, v.ID, StatusQueued, ""); err != nil {
		return 0, err
	}

	position, err := s.downloader.Submit(req)
	if err != nil {
		if rerr := s.UpdateDownloadStatus(ctx, v.ID, previous, v.LocalPath); rerr != nil {
			s.logger.Warn().Err(rerr).Str("id", v.ID).Msg("Failed to restore download status")
		}
		return 0, err
	}

	s.logger.Info().
		Str("id", v.ID).
		Str("filename", req.Filename).
		Int("position", position).
		Msg("Video queued for download")
	return position, nil
}

// CancelDownload cancels a queued or active download of id. It reports
// whether the scheduler acknowledged the cancel.
func (s *Service) CancelDownload(ctx context.Context, id string) (bool, error) {
	if s.downloader == nil {
		return false, ErrDownloadsOffline
	}
	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}

	if !s.downloader.Cancel(id) {
		return false, nil
	}
	if err := s.UpdateDownloadStatus(ctx, id, StatusNotDownloaded, ""); err != nil {
		return true, err
	}
	return true, nil
}
