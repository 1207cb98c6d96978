// Package catalog keeps the local mirror of a remote video collection and
// connects catalog entries to the download scheduler.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/archive"
	"github.com/reelvault/reelvault/internal/database/sqlc"
	"github.com/reelvault/reelvault/internal/download"
	"github.com/reelvault/reelvault/internal/history"
	"github.com/reelvault/reelvault/internal/progress"
)

// Source lists a remote collection and resolves item metadata.
type Source interface {
	SearchCollection(ctx context.Context, collection string, rows, start int) (*archive.SearchResult, error)
	GetMetadata(ctx context.Context, identifier string) (*archive.Metadata, error)
	ThumbnailURL(identifier string) string
}

// Downloader is the part of the download scheduler the catalog drives.
type Downloader interface {
	Submit(req download.Request) (int, error)
	Cancel(id string) bool
}

// SyncHistory records finished syncs.
type SyncHistory interface {
	LogCatalogSynced(ctx context.Context, data history.CatalogSyncedData) error
}

// Options tunes catalog sync.
type Options struct {
	DefaultCollection string
	PageSize          int
	MetadataWorkers   int
}

// Service provides catalog queries, sync and download orchestration.
type Service struct {
	db         *sql.DB
	queries    *sqlc.Queries
	source     Source
	downloader Downloader
	progress   *progress.Manager
	history    SyncHistory
	opts       Options
	logger     zerolog.Logger

	syncMu  sync.Mutex
	syncing map[string]bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// NewService creates a new catalog service. downloader and progress may be
// nil; downloads then fail with ErrDownloadsOffline.
func NewService(db *sql.DB, source Source, downloader Downloader, progressMgr *progress.Manager, opts Options, logger zerolog.Logger) *Service {
	if opts.PageSize < 1 {
		opts.PageSize = 100
	}
	if opts.MetadataWorkers < 1 {
		opts.MetadataWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		db:         db,
		queries:    sqlc.New(db),
		source:     source,
		downloader: downloader,
		progress:   progressMgr,
		opts:       opts,
		logger:     logger.With().Str("component", "catalog").Logger(),
		syncing:    make(map[string]bool),
		bgCtx:      ctx,
		bgCancel:   cancel,
	}
}

// SetDownloader attaches the download scheduler after construction.
func (s *Service) SetDownloader(d Downloader) {
	s.downloader = d
}

// SetHistory records every successful sync to h.
func (s *Service) SetHistory(h SyncHistory) {
	s.history = h
}

// DefaultCollection returns the configured collection.
func (s *Service) DefaultCollection() string {
	return s.opts.DefaultCollection
}

// Close cancels background syncs and waits for them to stop.
func (s *Service) Close() {
	s.bgCancel()
	s.bgWG.Wait()
}

// List returns all videos, newest first.
func (s *Service) List(ctx context.Context) ([]*Video, error) {
	rows, err := s.queries.ListVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return videosFromRows(rows), nil
}

// Search matches query against titles and descriptions. An empty query lists
// everything.
func (s *Service) Search(ctx context.Context, query string) ([]*Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	rows, err := s.queries.SearchVideos(ctx, "%"+escapeLike(query)+"%")
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}
	return videosFromRows(rows), nil
}

// escapeLike narrows a literal % in user input to the single-character
// wildcard so a query cannot match everything.
func escapeLike(s string) string {
	return strings.NewReplacer("%", "_").Replace(s)
}

// Get returns a single video.
func (s *Service) Get(ctx context.Context, id string) (*Video, error) {
	row, err := s.queries.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("get video: %w", err)
	}
	return videoFromRow(row), nil
}

// Title returns the title of video id, or id itself for downloads that are
// not in the catalog.
func (s *Service) Title(ctx context.Context, id string) string {
	v, err := s.Get(ctx, id)
	if err != nil || v.Title == "" {
		return id
	}
	return v.Title
}

// Delete removes a video from the catalog. Downloaded files are kept.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.queries.DeleteVideo(ctx, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	s.logger.Info().Str("id", id).Msg("Video deleted")
	return nil
}

// Count returns the number of videos in the catalog.
func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.queries.CountVideos(ctx)
}

// StatusCounts returns the number of videos per download status.
func (s *Service) StatusCounts(ctx context.Context) (map[DownloadStatus]int64, error) {
	rows, err := s.queries.CountVideosByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count videos by status: %w", err)
	}
	out := make(map[DownloadStatus]int64, len(rows))
	for _, row := range rows {
		out[DownloadStatus(row.DownloadStatus)] = row.Count
	}
	return out, nil
}

// UpdateDownloadStatus sets a video's download state. localPath is only kept
// for completed downloads.
func (s *Service) UpdateDownloadStatus(ctx context.Context, id string, status DownloadStatus, localPath string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	n, err := s.queries.UpdateVideoDownloadStatus(ctx, sqlc.UpdateVideoDownloadStatusParams{
		DownloadStatus: string(status),
		LocalPath:      sql.NullString{String: localPath, Valid: localPath != ""},
		ID:             id,
	})
	if err != nil {
		return fmt.Errorf("update download status: %w", err)
	}
	if n == 0 {
		return ErrVideoNotFound
	}
	return nil
}

// ResetInterrupted returns videos left queued or downloading by a previous
// run to not_downloaded. Downloads do not survive restarts.
func (s *Service) ResetInterrupted(ctx context.Context) (int64, error) {
	n, err := s.queries.ResetInterruptedDownloads(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset interrupted downloads: %w", err)
	}
	if n > 0 {
		s.logger.Info().Int64("count", n).Msg("Reset interrupted downloads")
	}
	return n, nil
}
