// Package settings persists the runtime-editable download settings and
// applies changes to the running download manager.
package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reelvault/reelvault/internal/database/sqlc"
)

const (
	keyDownloadPath  = "download_path"
	keyMaxConcurrent = "max_concurrent"
	keyAutoStart     = "auto_start"
)

// ErrInvalidSettings is returned when an update fails validation.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings are the values users can change while the service runs.
type Settings struct {
	DownloadPath  string `json:"downloadPath"`
	MaxConcurrent int    `json:"maxConcurrent"`
	AutoStart     bool   `json:"autoStart"`
}

// Update is a partial change; nil fields are left untouched.
type Update struct {
	DownloadPath  *string `json:"downloadPath"`
	MaxConcurrent *int    `json:"maxConcurrent"`
	AutoStart     *bool   `json:"autoStart"`
}

// Applier receives changes that take effect immediately.
// AutoStart is only read at boot.
type Applier interface {
	SetDownloadDir(dir string) error
	SetMaxConcurrent(n int) error
}

// Service loads, validates and stores settings.
type Service struct {
	queries *sqlc.Queries
	logger  zerolog.Logger

	mu      sync.RWMutex
	current Settings
	applier Applier
}

// NewService creates a settings service seeded with defaults, normally the
// values from the config file.
func NewService(db *sql.DB, defaults Settings, logger zerolog.Logger) *Service {
	return &Service{
		queries: sqlc.New(db),
		current: defaults,
		logger:  logger.With().Str("component", "settings").Logger(),
	}
}

// SetApplier wires the component that receives live changes.
func (s *Service) SetApplier(a Applier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applier = a
}

// Load overlays stored values on the defaults and returns the result.
// Unparseable stored values are ignored.
func (s *Service) Load(ctx context.Context) (Settings, error) {
	rows, err := s.queries.ListSettings(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range rows {
		switch row.Key {
		case keyDownloadPath:
			if v := strings.TrimSpace(row.Value); v != "" {
				s.current.DownloadPath = v
			}
		case keyMaxConcurrent:
			if n, err := strconv.Atoi(row.Value); err == nil && n >= 1 {
				s.current.MaxConcurrent = n
			} else {
				s.logger.Warn().Str("value", row.Value).Msg("Ignoring invalid stored max concurrent value")
			}
		case keyAutoStart:
			if b, err := strconv.ParseBool(row.Value); err == nil {
				s.current.AutoStart = b
			}
		}
	}
	return s.current, nil
}

// Get returns the current settings.
func (s *Service) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates u, applies it to the live manager and persists it.
func (s *Service) Update(ctx context.Context, u Update) (Settings, error) {
	if u.DownloadPath != nil {
		trimmed := strings.TrimSpace(*u.DownloadPath)
		if trimmed == "" {
			return Settings{}, fmt.Errorf("%w: download path is required", ErrInvalidSettings)
		}
		u.DownloadPath = &trimmed
	}
	if u.MaxConcurrent != nil && *u.MaxConcurrent < 1 {
		return Settings{}, fmt.Errorf("%w: max concurrent downloads must be at least 1", ErrInvalidSettings)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if s.applier != nil {
		if u.DownloadPath != nil && *u.DownloadPath != next.DownloadPath {
			if err := s.applier.SetDownloadDir(*u.DownloadPath); err != nil {
				return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
			}
		}
		if u.MaxConcurrent != nil && *u.MaxConcurrent != next.MaxConcurrent {
			if err := s.applier.SetMaxConcurrent(*u.MaxConcurrent); err != nil {
				return Settings{}, fmt.Errorf("%w: %v", ErrInvalidSettings, err)
			}
		}
	}

	if u.DownloadPath != nil {
		next.DownloadPath = *u.DownloadPath
		if err := s.set(ctx, keyDownloadPath, next.DownloadPath); err != nil {
			return Settings{}, err
		}
	}
	if u.MaxConcurrent != nil {
		next.MaxConcurrent = *u.MaxConcurrent
		if err := s.set(ctx, keyMaxConcurrent, strconv.Itoa(next.MaxConcurrent)); err != nil {
			return Settings{}, err
		}
	}
	if u.AutoStart != nil {
		next.AutoStart = *u.AutoStart
		if err := s.set(ctx, keyAutoStart, strconv.FormatBool(next.AutoStart)); err != nil {
			return Settings{}, err
		}
	}

	s.current = next
	s.logger.Info().
		Str("downloadPath", next.DownloadPath).
		Int("maxConcurrent", next.MaxConcurrent).
		Bool("autoStart", next.AutoStart).
		Msg("Settings updated")
	return next, nil
}

func (s *Service) set(ctx context.Context, key, value string) error {
	_, err := s.queries.SetSetting(ctx, sqlc.SetSettingParams{Key: key, Value: value})
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}
