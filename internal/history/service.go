// Package history records download outcomes and catalog syncs.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/database/sqlc"
)

// Service provides history management functionality.
type Service struct {
	db      *sql.DB
	queries *sqlc.Queries
	logger  zerolog.Logger
}

// NewService creates a new history service.
func NewService(db *sql.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		queries: sqlc.New(db),
		logger:  logger.With().Str("component", "history").Logger(),
	}
}

// Create creates a new history entry.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Entry, error) {
	var dataJSON sql.NullString
	if input.Data != nil {
		bytes, err := json.Marshal(input.Data)
		if err != nil {
			return nil, err
		}
		dataJSON = sql.NullString{String: string(bytes), Valid: true}
	}

	row, err := s.queries.CreateHistoryEntry(ctx, sqlc.CreateHistoryEntryParams{
		EventType: string(input.EventType),
		VideoID:   input.VideoID,
		Title:     sql.NullString{String: input.Title, Valid: input.Title != ""},
		Data:      dataJSON,
	})
	if err != nil {
		return nil, err
	}

	return s.rowToEntry(row), nil
}

// List lists history entries with pagination and filtering.
func (s *Service) List(ctx context.Context, opts ListOptions) (*ListResponse, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 50
	}
	if opts.PageSize > 100 {
		opts.PageSize = 100
	}

	offset := int64((opts.Page - 1) * opts.PageSize)
	limit := int64(opts.PageSize)

	var rows []*sqlc.History
	var err error
	var totalCount int64

	if opts.EventType != "" {
		rows, err = s.queries.ListHistoryByEventType(ctx, sqlc.ListHistoryByEventTypeParams{
			EventType: opts.EventType,
			Limit:     limit,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}

		totalCount, err = s.queries.CountHistoryByEventType(ctx, opts.EventType)
		if err != nil {
			return nil, err
		}
	} else {
		rows, err = s.queries.ListHistoryPaginated(ctx, sqlc.ListHistoryPaginatedParams{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return nil, err
		}

		totalCount, err = s.queries.CountHistory(ctx)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, s.rowToEntry(row))
	}

	totalPages := int(totalCount) / opts.PageSize
	if int(totalCount)%opts.PageSize > 0 {
		totalPages++
	}

	return &ListResponse{
		Items:      entries,
		Page:       opts.Page,
		PageSize:   opts.PageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}, nil
}

// ListByVideo lists history for a specific video.
func (s *Service) ListByVideo(ctx context.Context, videoID string) ([]*Entry, error) {
	rows, err := s.queries.ListHistoryByVideo(ctx, videoID)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, s.rowToEntry(row))
	}
	return entries, nil
}

// DeleteAll deletes all history entries.
func (s *Service) DeleteAll(ctx context.Context) error {
	return s.queries.DeleteAllHistory(ctx)
}

// rowToEntry converts a database row to an Entry.
func (s *Service) rowToEntry(row *sqlc.History) *Entry {
	entry := &Entry{
		ID:        row.ID,
		EventType: EventType(row.EventType),
		VideoID:   row.VideoID,
	}

	if row.Title.Valid {
		entry.Title = row.Title.String
	}
	if row.Data.Valid {
		var data map[string]any
		if err := json.Unmarshal([]byte(row.Data.String), &data); err == nil {
			entry.Data = data
		}
	}
	if row.CreatedAt.Valid {
		entry.CreatedAt = row.CreatedAt.Time.UTC().Format(time.RFC3339)
	}

	return entry
}

// LogDownloadCompleted logs a finished download.
func (s *Service) LogDownloadCompleted(ctx context.Context, videoID, title string, data DownloadCompletedData) error {
	return s.log(ctx, EventTypeDownloadCompleted, videoID, title, data)
}

// LogDownloadFailed logs a download that exhausted its retries.
func (s *Service) LogDownloadFailed(ctx context.Context, videoID, title string, data DownloadFailedData) error {
	return s.log(ctx, EventTypeDownloadFailed, videoID, title, data)
}

// LogDownloadCancelled logs a cancelled download.
func (s *Service) LogDownloadCancelled(ctx context.Context, videoID, title string) error {
	return s.log(ctx, EventTypeDownloadCancelled, videoID, title, nil)
}

// LogCatalogSynced logs a finished catalog sync.
func (s *Service) LogCatalogSynced(ctx context.Context, data CatalogSyncedData) error {
	return s.log(ctx, EventTypeCatalogSynced, "", data.Collection, data)
}

func (s *Service) log(ctx context.Context, eventType EventType, videoID, title string, data any) error {
	var dataMap map[string]any
	if data != nil {
		var err error
		dataMap, err = ToJSON(data)
		if err != nil {
			s.logger.Warn().Err(err).Str("eventType", string(eventType)).Msg("Failed to marshal history data")
			dataMap = nil
		}
	}

	_, err := s.Create(ctx, CreateInput{
		EventType: eventType,
		VideoID:   videoID,
		Title:     title,
		Data:      dataMap,
	})
	return err
}
