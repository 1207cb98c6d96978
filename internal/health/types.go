package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an item.
type HealthStatus string

const (
	StatusOK    HealthStatus = "ok"
	StatusError HealthStatus = "error"
)

// Check names reported by the service.
const (
	CheckDownloadDir = "downloadDir"
	CheckDatabase    = "database"
)

// HealthItem represents a single health-tracked item.
type HealthItem struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	OK        bool         `json:"ok"`
	Message   string       `json:"message,omitempty"`
	Target    string       `json:"target,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

// MarshalJSON customizes JSON output to omit timestamp and message for OK status.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// Report is the result of one health check run.
type Report struct {
	OK          bool       `json:"ok"`
	DownloadDir HealthItem `json:"downloadDir"`
	Database    HealthItem `json:"database"`
	CheckedAt   time.Time  `json:"checkedAt"`
}

// HealthUpdatePayload is the WebSocket payload for health updates.
type HealthUpdatePayload struct {
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}
