package history

import "encoding/json"

// EventType represents the type of history event.
type EventType string

const (
	EventTypeDownloadCompleted EventType = "download_completed"
	EventTypeDownloadFailed    EventType = "download_failed"
	EventTypeDownloadCancelled EventType = "download_cancelled"
	EventTypeCatalogSynced     EventType = "catalog_synced"
)

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeDownloadCompleted, EventTypeDownloadFailed, EventTypeDownloadCancelled, EventTypeCatalogSynced:
		return true
	}
	return false
}

// Entry represents a history entry.
type Entry struct {
	ID        int64          `json:"id"`
	EventType EventType      `json:"eventType"`
	VideoID   string         `json:"videoId,omitempty"`
	Title     string         `json:"title,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

// CreateInput contains fields for creating a history entry.
type CreateInput struct {
	EventType EventType
	VideoID   string
	Title     string
	Data      map[string]any
}

// ListOptions contains options for listing history.
type ListOptions struct {
	EventType string
	Page      int
	PageSize  int
}

// ListResponse contains paginated history results.
type ListResponse struct {
	Items      []*Entry `json:"items"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalCount int64    `json:"totalCount"`
	TotalPages int      `json:"totalPages"`
}

// DownloadCompletedData contains data for completed downloads.
type DownloadCompletedData struct {
	LocalPath  string `json:"localPath"`
	Size       int64  `json:"size"`
	SizeHuman  string `json:"sizeHuman,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// DownloadFailedData contains data for downloads that exhausted their retries.
type DownloadFailedData struct {
	Error      string `json:"error"`
	RetryCount int    `json:"retryCount"`
}

// CatalogSyncedData contains data for a finished catalog sync.
type CatalogSyncedData struct {
	Collection string `json:"collection"`
	Found      int    `json:"found"`
	Synced     int    `json:"synced"`
	Skipped    int    `json:"skipped"`
	DurationMs int64  `json:"durationMs"`
}

// ToJSON converts a data struct to a JSON map.
func ToJSON(v any) (map[string]any, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(bytes, &result); err != nil {
		return nil, err
	}
	return result, nil
}
