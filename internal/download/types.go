package download

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Request describes one item to fetch. It is immutable once submitted.
type Request struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Priority int    `json:"priority"`
}

// Validate checks that the request can be scheduled.
func (r Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	name := strings.TrimSpace(r.Filename)
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: filename is required", ErrInvalidRequest)
	}
	if filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: filename must not contain path separators", ErrInvalidRequest)
	}
	return nil
}

// QueueItem is a pending request plus the number of failed attempts so far.
type QueueItem struct {
	Request    Request
	RetryCount int
}

// Progress is a throughput sample for an active download.
// TotalBytes and ETASeconds are nil when unknown.
type Progress struct {
	ID               string   `json:"id"`
	BytesDownloaded  int64    `json:"bytesDownloaded"`
	TotalBytes       *int64   `json:"totalBytes"`
	Percent          float64  `json:"percent"`
	SpeedBytesPerSec float64  `json:"speed"`
	ETASeconds       *float64 `json:"eta"`
}

// Result is emitted once per successful download.
type Result struct {
	ID         string `json:"id"`
	LocalPath  string `json:"localPath"`
	SizeBytes  int64  `json:"size"`
	DurationMs int64  `json:"duration"`
}

// Failure is emitted once per download that exhausted its retries.
type Failure struct {
	ID         string `json:"id"`
	Message    string `json:"error"`
	RetryCount int    `json:"retryCount"`
}

// State is the coarse scheduler state reported in snapshots.
type State string

const (
	StateIdle        State = "idle"
	StateDownloading State = "downloading"
	StatePaused      State = "paused"
)

// QueuedEntry describes one pending item in a Snapshot.
type QueuedEntry struct {
	ID         string `json:"id"`
	Priority   int    `json:"priority"`
	RetryCount int    `json:"retryCount"`
}

// Snapshot is a read-only, point-in-time view of the scheduler.
type Snapshot struct {
	State       State         `json:"state"`
	QueueSize   int           `json:"queueSize"`
	ActiveCount int           `json:"activeCount"`
	Queue       []QueuedEntry `json:"queue"`
	ActiveIDs   []string      `json:"activeIds"`
}
