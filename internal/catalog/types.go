package catalog

import (
	"errors"
	"time"

	"github.com/reelvault/reelvault/internal/database/sqlc"
)

// DownloadStatus is the local download state of a video.
type DownloadStatus string

const (
	StatusNotDownloaded DownloadStatus = "not_downloaded"
	StatusQueued        DownloadStatus = "queued"
	StatusDownloading   DownloadStatus = "downloading"
	StatusCompleted     DownloadStatus = "completed"
	StatusFailed        DownloadStatus = "failed"
)

// Valid reports whether s is a known status.
func (s DownloadStatus) Valid() bool {
	switch s {
	case StatusNotDownloaded, StatusQueued, StatusDownloading, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

var (
	ErrVideoNotFound    = errors.New("video not found")
	ErrNoVideoFile      = errors.New("video has no downloadable file")
	ErrInvalidStatus    = errors.New("invalid download status")
	ErrSyncInProgress   = errors.New("catalog sync already in progress")
	ErrEmptyCollection  = errors.New("collection is required")
	ErrDownloadsOffline = errors.New("download manager is not available")
)

// Video is a catalog entry mirrored from the remote collection.
type Video struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	PublicDate      *time.Time     `json:"publicDate,omitempty"`
	Duration        *float64       `json:"duration"`
	ThumbnailURL    string         `json:"thumbnailUrl"`
	PrimaryVideoURL string         `json:"primaryVideoUrl"`
	PrimaryFormat   string         `json:"primaryFormat"`
	Collection      string         `json:"collection"`
	DownloadStatus  DownloadStatus `json:"downloadStatus"`
	LocalPath       string         `json:"localPath,omitempty"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
}

// SyncResult summarizes one catalog sync.
type SyncResult struct {
	Collection string        `json:"collection"`
	Found      int           `json:"found"`
	Synced     int           `json:"synced"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration"`
}

func videoFromRow(row *sqlc.Video) *Video {
	v := &Video{
		ID:              row.ID,
		Title:           row.Title,
		ThumbnailURL:    row.ThumbnailUrl,
		PrimaryVideoURL: row.PrimaryVideoUrl,
		PrimaryFormat:   row.PrimaryFormat,
		Collection:      row.Collection,
		DownloadStatus:  DownloadStatus(row.DownloadStatus),
	}
	if row.Description.Valid {
		v.Description = row.Description.String
	}
	if row.PublicDate.Valid {
		t := row.PublicDate.Time.UTC()
		v.PublicDate = &t
	}
	if row.Duration.Valid {
		d := row.Duration.Float64
		v.Duration = &d
	}
	if row.LocalPath.Valid {
		v.LocalPath = row.LocalPath.String
	}
	if row.UpdatedAt.Valid {
		t := row.UpdatedAt.Time.UTC()
		v.UpdatedAt = &t
	}
	return v
}

func videosFromRows(rows []*sqlc.Video) []*Video {
	out := make([]*Video, 0, len(rows))
	for _, row := range rows {
		out = append(out, videoFromRow(row))
	}
	return out
}
