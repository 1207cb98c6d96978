// Package progress tracks long-running background activities, such as a
// catalog sync, and broadcasts their state to connected WebSocket clients.
package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ActivityType identifies the type of activity being tracked.
type ActivityType string

const (
	ActivityTypeSync        ActivityType = "sync"
	ActivityTypeHealthCheck ActivityType = "health-check"
	ActivityTypeCleanup     ActivityType = "cleanup"
)

// Status represents the current state of an activity.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Activity is a trackable unit of background work.
type Activity struct {
	ID          string         `json:"id"`
	Type        ActivityType   `json:"type"`
	Title       string         `json:"title"`
	Subtitle    string         `json:"subtitle"`
	Progress    int            `json:"progress"` // 0-100, -1 for indeterminate
	Status      Status         `json:"status"`
	StartedAt   time.Time      `json:"startedAt"`
	CompletedAt *time.Time     `json:"completedAt"`
	Metadata    map[string]any `json:"metadata"`
}

func (a *Activity) clone() *Activity {
	c := *a
	c.Metadata = make(map[string]any, len(a.Metadata))
	for k, v := range a.Metadata {
		c.Metadata[k] = v
	}
	return &c
}

// EventType identifies the type of progress event.
type EventType string

const (
	EventTypeStarted   EventType = "progress:started"
	EventTypeUpdate    EventType = "progress:update"
	EventTypeCompleted EventType = "progress:completed"
	EventTypeError     EventType = "progress:error"
	EventTypeCancelled EventType = "progress:cancelled"
)

// Broadcaster sends a typed message to every connected client.
type Broadcaster interface {
	Broadcast(msgType string, payload interface{})
}

// DefaultRetention is how long finished activities stay visible.
const DefaultRetention = 10 * time.Second

// Manager tracks and broadcasts progress for all activities.
type Manager struct {
	mu         sync.RWMutex
	hub        Broadcaster
	activities map[string]*Activity
	retention  time.Duration
	logger     zerolog.Logger
}

// NewManager creates a new progress manager. hub may be nil.
func NewManager(hub Broadcaster, logger zerolog.Logger) *Manager {
	return &Manager{
		hub:        hub,
		activities: make(map[string]*Activity),
		retention:  DefaultRetention,
		logger:     logger.With().Str("component", "progress").Logger(),
	}
}

// SetRetention changes how long finished activities are kept.
func (m *Manager) SetRetention(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retention = d
}

// Start begins tracking an activity and returns a handle to report on it.
// Starting an id that is already tracked replaces it.
func (m *Manager) Start(id string, activityType ActivityType, title string) *Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity := &Activity{
		ID:        id,
		Type:      activityType,
		Title:     title,
		Subtitle:  "Starting...",
		Status:    StatusInProgress,
		StartedAt: time.Now(),
		Metadata:  make(map[string]any),
	}
	m.activities[id] = activity
	m.broadcast(EventTypeStarted, activity)

	m.logger.Debug().
		Str("id", id).
		Str("type", string(activityType)).
		Str("title", title).
		Msg("Activity started")

	return &Tracker{manager: m, id: id}
}

func (m *Manager) update(id, subtitle string, progress int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, ok := m.activities[id]
	if !ok || activity.Status != StatusInProgress {
		return
	}
	activity.Subtitle = subtitle
	activity.Progress = clampProgress(progress)
	m.broadcast(EventTypeUpdate, activity)
}

func (m *Manager) setMetadata(id, key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if activity, ok := m.activities[id]; ok {
		activity.Metadata[key] = value
	}
}

func (m *Manager) finish(id string, status Status, subtitle string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	activity, ok := m.activities[id]
	if !ok || activity.Status != StatusInProgress {
		return
	}

	now := time.Now()
	activity.Status = status
	activity.Subtitle = subtitle
	activity.CompletedAt = &now

	eventType := EventTypeCompleted
	switch status {
	case StatusCompleted:
		activity.Progress = 100
	case StatusFailed:
		activity.Metadata["error"] = subtitle
		eventType = EventTypeError
	case StatusCancelled:
		eventType = EventTypeCancelled
	}
	m.broadcast(eventType, activity)

	m.logger.Debug().
		Str("id", id).
		Str("status", string(status)).
		Str("subtitle", subtitle).
		Msg("Activity finished")

	// Only remove the activity this timer was scheduled for; the id may have
	// been restarted in the meantime.
	time.AfterFunc(m.retention, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.activities[id] == activity {
			delete(m.activities, id)
		}
	})
}

// Get returns a copy of the activity with id, or nil.
func (m *Manager) Get(id string) *Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.activities[id]; ok {
		return a.clone()
	}
	return nil
}

// List returns copies of all tracked activities, oldest first.
func (m *Manager) List() []*Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// IsRunning reports whether an activity with id is in progress.
func (m *Manager) IsRunning(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.activities[id]
	return ok && a.Status == StatusInProgress
}

// broadcast is called with mu held so that clients see updates in order.
func (m *Manager) broadcast(eventType EventType, activity *Activity) {
	if m.hub == nil {
		return
	}
	m.hub.Broadcast(string(eventType), activity.clone())
}

func clampProgress(p int) int {
	switch {
	case p < -1:
		return -1
	case p > 100:
		return 100
	default:
		return p
	}
}

// Tracker reports on a single activity.
type Tracker struct {
	manager *Manager
	id      string
}

// ID returns the activity's ID.
func (t *Tracker) ID() string { return t.id }

// Update sets the subtitle and percentage.
func (t *Tracker) Update(subtitle string, progress int) {
	t.manager.update(t.id, subtitle, progress)
}

// SetMetadata attaches a key/value to the activity.
func (t *Tracker) SetMetadata(key string, value any) {
	t.manager.setMetadata(t.id, key, value)
}

// Complete marks the activity as completed.
func (t *Tracker) Complete(subtitle string) {
	t.manager.finish(t.id, StatusCompleted, subtitle)
}

// Fail marks the activity as failed.
func (t *Tracker) Fail(errorMsg string) {
	t.manager.finish(t.id, StatusFailed, errorMsg)
}

// Cancel marks the activity as cancelled.
func (t *Tracker) Cancel() {
	t.manager.finish(t.id, StatusCancelled, "Cancelled")
}
