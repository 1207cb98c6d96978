package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/reelvault/reelvault/internal/database/sqlc"
)

const settingsKey = "history_retention"

// ErrInvalidRetention is returned for a negative retention period.
var ErrInvalidRetention = errors.New("retention days must not be negative")

// RetentionSettings contains history retention configuration.
type RetentionSettings struct {
	Enabled       bool `json:"enabled"`
	RetentionDays int  `json:"retentionDays"`
}

// DefaultRetentionSettings returns default retention settings.
func DefaultRetentionSettings() RetentionSettings {
	return RetentionSettings{
		Enabled:       true,
		RetentionDays: 90,
	}
}

// GetRetentionSettings loads retention settings from the database.
func (s *Service) GetRetentionSettings(ctx context.Context) (RetentionSettings, error) {
	row, err := s.queries.GetSetting(ctx, settingsKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultRetentionSettings(), nil
		}
		return RetentionSettings{}, err
	}

	var settings RetentionSettings
	if err := json.Unmarshal([]byte(row.Value), &settings); err != nil {
		return DefaultRetentionSettings(), nil //nolint:nilerr // Invalid JSON, use defaults
	}
	return settings, nil
}

// SaveRetentionSettings saves retention settings to the database.
func (s *Service) SaveRetentionSettings(ctx context.Context, settings RetentionSettings) error {
	if settings.RetentionDays < 0 {
		return ErrInvalidRetention
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}

	_, err = s.queries.SetSetting(ctx, sqlc.SetSettingParams{
		Key:   settingsKey,
		Value: string(data),
	})
	return err
}

// CleanupOldEntries deletes history entries older than the configured
// retention period and returns how many were removed.
func (s *Service) CleanupOldEntries(ctx context.Context) (int64, error) {
	settings, err := s.GetRetentionSettings(ctx)
	if err != nil {
		return 0, err
	}

	if !settings.Enabled || settings.RetentionDays <= 0 {
		return 0, nil
	}

	// created_at is stored as UTC text, so the cutoff must be UTC too.
	cutoff := sql.NullTime{
		Time:  time.Now().UTC().AddDate(0, 0, -settings.RetentionDays),
		Valid: true,
	}

	n, err := s.queries.DeleteOldHistory(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info().Int64("deleted", n).Int("retentionDays", settings.RetentionDays).Msg("Cleaned up old history entries")
	}
	return n, nil
}
