// Package health checks the download directory and the database and reports
// their state over HTTP and WebSocket.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Broadcaster defines the interface for sending WebSocket messages.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventHealthUpdated is broadcast whenever a check changes status.
const EventHealthUpdated = "health:updated"

// Service runs health checks and remembers the latest result.
// All state is in-memory and resets on application restart.
type Service struct {
	fs          *FilesystemChecker
	downloadDir func() string
	db          Pinger

	mu          sync.RWMutex
	last        *Report
	broadcaster Broadcaster
	logger      zerolog.Logger
}

// NewService creates a new health service. downloadDir is called on every
// check so directory changes made at runtime are picked up.
func NewService(downloadDir func() string, db Pinger, logger zerolog.Logger) *Service {
	return &Service{
		fs:          NewFilesystemChecker(),
		downloadDir: downloadDir,
		db:          db,
		logger:      logger.With().Str("component", "health").Logger(),
	}
}

// SetBroadcaster sets the WebSocket broadcaster for real-time updates.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.broadcaster = b
}

// Check runs all health checks, stores the report and broadcasts status changes.
func (s *Service) Check(ctx context.Context) *Report {
	now := time.Now()
	report := &Report{CheckedAt: now}

	dir := s.downloadDir()
	ok, msg := s.fs.CheckFolderHealth(dir)
	report.DownloadDir = newItem(CheckDownloadDir, ok, msg, now)
	report.DownloadDir.Target = dir

	dbOK, dbMsg := true, ""
	if s.db != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := s.db.Ping(pingCtx); err != nil {
			dbOK, dbMsg = false, err.Error()
		}
		cancel()
	}
	report.Database = newItem(CheckDatabase, dbOK, dbMsg, now)
	report.OK = report.DownloadDir.OK && report.Database.OK

	s.mu.Lock()
	prev := s.last
	s.last = report
	b := s.broadcaster
	s.mu.Unlock()

	s.noteTransition(b, prevItem(prev, CheckDownloadDir), &report.DownloadDir)
	s.noteTransition(b, prevItem(prev, CheckDatabase), &report.Database)

	return report
}

// Last returns the most recent report, or nil before the first check.
func (s *Service) Last() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) noteTransition(b Broadcaster, prev, cur *HealthItem) {
	if prev != nil && prev.Status == cur.Status {
		return
	}

	switch {
	case cur.Status == StatusError:
		s.logger.Warn().Str("check", cur.Name).Str("target", cur.Target).Str("message", cur.Message).Msg("Health check failing")
	case prev != nil:
		s.logger.Info().Str("check", cur.Name).Msg("Health check recovered")
	}

	if b == nil {
		return
	}
	b.Broadcast(EventHealthUpdated, HealthUpdatePayload{
		Name:      cur.Name,
		Status:    cur.Status,
		Message:   cur.Message,
		Timestamp: cur.Timestamp,
	})
}

func newItem(name string, ok bool, message string, at time.Time) HealthItem {
	item := HealthItem{Name: name, OK: ok, Status: StatusOK, Timestamp: &at}
	if !ok {
		item.Status = StatusError
		item.Message = message
	}
	return item
}

func prevItem(r *Report, name string) *HealthItem {
	if r == nil {
		return nil
	}
	switch name {
	case CheckDownloadDir:
		return &r.DownloadDir
	case CheckDatabase:
		return &r.Database
	}
	return nil
}
