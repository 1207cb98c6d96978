package download

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds scheduler settings.
type Config struct {
	DownloadDir      string
	MaxConcurrent    int
	MaxRetries       int
	ProgressInterval time.Duration
	ConnectTimeout   time.Duration
	StartPaused      bool

	// HTTPClient overrides the client used by workers.
	HTTPClient *http.Client
}

// activeDownload tracks a running worker. cancel is its cancellation token.
type activeDownload struct {
	id        string
	cancel    context.CancelFunc
	cancelled bool
}

// Manager owns the queue and the active set, enforces the concurrency cap,
// applies retry policy and answers cancel, pause and resume requests.
//
// All state transitions, and the events they publish, are serialized by seq.
// mu only guards reads and writes of the fields below so that Snapshot can be
// called from inside an event listener.
type Manager struct {
	seq sync.Mutex

	mu            sync.RWMutex
	queue         *Queue
	active        map[string]*activeDownload
	activeOrder   []string
	paused        bool
	maxConcurrent int
	maxRetries    int
	downloadDir   string

	bus    *Bus
	worker *Worker
	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewManager creates a scheduler. The download directory is created if absent.
func NewManager(cfg Config, logger zerolog.Logger) (*Manager, error) {
	if cfg.MaxConcurrent < 1 {
		return nil, fmt.Errorf("max concurrent downloads must be at least 1, got %d", cfg.MaxConcurrent)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative, got %d", cfg.MaxRetries)
	}
	if err := ensureDir(cfg.DownloadDir); err != nil {
		return nil, err
	}

	client := cfg.HTTPClient
	if client == nil {
		client = newHTTPClient(cfg.ConnectTimeout)
	}

	bus := NewBus()
	m := &Manager{
		queue:         NewQueue(),
		active:        make(map[string]*activeDownload),
		paused:        cfg.StartPaused,
		maxConcurrent: cfg.MaxConcurrent,
		maxRetries:    cfg.MaxRetries,
		downloadDir:   cfg.DownloadDir,
		bus:           bus,
		worker:        NewWorker(client, bus, cfg.ProgressInterval, logger),
		logger:        logger.With().Str("component", "download").Logger(),
	}
	return m, nil
}

func newHTTPClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 30 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = connectTimeout
	transport.ResponseHeaderTimeout = connectTimeout * 2

	// No overall timeout: bodies may take hours to stream.
	return &http.Client{Transport: transport}
}

func ensureDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("download directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}
	return nil
}

// Subscribe registers an event listener. Listeners may call Snapshot but must
// not call mutating Manager methods synchronously.
func (m *Manager) Subscribe(l Listener) (unsubscribe func()) {
	return m.bus.Subscribe(l)
}

// Submit queues a request and returns its 1-based queue position.
func (m *Manager) Submit(req Request) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, err
	}

	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	if _, ok := m.active[req.ID]; ok || m.queue.Contains(req.ID) {
		m.mu.Unlock()
		return 0, fmt.Errorf("%w: %s", ErrDuplicateRequest, req.ID)
	}
	position := m.queue.Insert(QueueItem{Request: req})
	m.mu.Unlock()

	m.logger.Info().
		Str("id", req.ID).
		Int("priority", req.Priority).
		Int("position", position).
		Msg("Download queued")
	m.bus.Publish(queuedEvent(req.ID, position))

	m.advance()
	return position, nil
}

// Cancel aborts an active download or removes a queued one. It returns false
// when the id is unknown, already terminal, or already being cancelled.
func (m *Manager) Cancel(id string) bool {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	if a, ok := m.active[id]; ok {
		if a.cancelled {
			m.mu.Unlock()
			return false
		}
		a.cancelled = true
		a.cancel()
		m.mu.Unlock()
		m.logger.Info().Str("id", id).Msg("Cancelling active download")
		return true
	}

	_, ok := m.queue.RemoveByID(id)
	m.mu.Unlock()
	if !ok {
		return false
	}

	m.logger.Info().Str("id", id).Msg("Removed queued download")
	m.bus.Publish(cancelledEvent(id))
	return true
}

// Pause prevents new downloads from starting. Active downloads continue.
func (m *Manager) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
	m.logger.Info().Msg("Download queue paused")
}

// Resume clears the pause flag and starts queued downloads.
func (m *Manager) Resume() {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	m.paused = false
	m.mu.Unlock()
	m.logger.Info().Msg("Download queue resumed")

	m.advance()
}

// Start is Resume; it is called at boot when auto-start is enabled.
func (m *Manager) Start() {
	m.Resume()
}

// Stop pauses the queue and cancels every active download.
func (m *Manager) Stop() {
	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	m.paused = true
	cancelled := 0
	for _, a := range m.active {
		if !a.cancelled {
			a.cancelled = true
			a.cancel()
			cancelled++
		}
	}
	m.mu.Unlock()

	m.logger.Info().Int("cancelled", cancelled).Msg("Download queue stopped")
}

// Shutdown stops the scheduler and waits for workers to clean up.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.Stop()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SetMaxConcurrent changes the concurrency cap. Lowering it never interrupts
// running downloads; it only delays new starts.
func (m *Manager) SetMaxConcurrent(n int) error {
	if n < 1 {
		return fmt.Errorf("max concurrent downloads must be at least 1, got %d", n)
	}

	m.seq.Lock()
	defer m.seq.Unlock()

	m.mu.Lock()
	m.maxConcurrent = n
	m.mu.Unlock()

	m.advance()
	return nil
}

// SetDownloadDir changes the output directory for downloads started afterwards.
func (m *Manager) SetDownloadDir(dir string) error {
	if err := ensureDir(dir); err != nil {
		return err
	}
	m.mu.Lock()
	m.downloadDir = dir
	m.mu.Unlock()
	return nil
}

// DownloadDir returns the current output directory.
func (m *Manager) DownloadDir() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.downloadDir
}

// Snapshot returns a point-in-time view of the scheduler.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state := StateIdle
	switch {
	case m.paused:
		state = StatePaused
	case len(m.active) > 0:
		state = StateDownloading
	}

	items := m.queue.Items()
	queue := make([]QueuedEntry, 0, len(items))
	for _, item := range items {
		queue = append(queue, QueuedEntry{
			ID:         item.Request.ID,
			Priority:   item.Request.Priority,
			RetryCount: item.RetryCount,
		})
	}

	activeIDs := make([]string, len(m.activeOrder))
	copy(activeIDs, m.activeOrder)

	return Snapshot{
		State:       state,
		QueueSize:   len(items),
		ActiveCount: len(m.active),
		Queue:       queue,
		ActiveIDs:   activeIDs,
	}
}

// advance starts queued downloads while capacity allows. Callers hold seq.
func (m *Manager) advance() {
	for {
		m.mu.Lock()
		if m.paused || len(m.active) >= m.maxConcurrent || m.queue.Len() == 0 {
			m.mu.Unlock()
			return
		}

		item, _ := m.queue.PopHead()
		ctx, cancel := context.WithCancel(context.Background())
		id := item.Request.ID
		m.active[id] = &activeDownload{id: id, cancel: cancel}
		m.activeOrder = append(m.activeOrder, id)
		dir := m.downloadDir
		m.mu.Unlock()

		m.logger.Info().
			Str("id", id).
			Int("retryCount", item.RetryCount).
			Msg("Download started")
		m.bus.Publish(startedEvent(id))

		m.wg.Add(1)
		go m.run(ctx, dir, item)
	}
}

func (m *Manager) run(ctx context.Context, dir string, item QueueItem) {
	defer m.wg.Done()
	result, err := m.worker.Download(ctx, dir, item.Request)
	m.finish(item, result, err)
}

// finish releases the worker's slot, publishes the attempt's outcome, applies
// retry policy and re-evaluates scheduling exactly once. The slot is released
// before the terminal event so listeners observe the id as no longer active.
func (m *Manager) finish(item QueueItem, result Result, err error) {
	m.seq.Lock()
	defer m.seq.Unlock()

	id := item.Request.ID

	m.mu.Lock()
	if a, ok := m.active[id]; ok {
		a.cancel()
		delete(m.active, id)
		for i, v := range m.activeOrder {
			if v == id {
				m.activeOrder = append(m.activeOrder[:i], m.activeOrder[i+1:]...)
				break
			}
		}
	}
	maxRetries := m.maxRetries
	m.mu.Unlock()

	switch {
	case err == nil:
		m.logger.Info().Str("id", id).Msg("Download completed")
		m.bus.Publish(completedEvent(result))

	case errors.Is(err, ErrCancelled):
		m.logger.Info().Str("id", id).Msg("Download cancelled")
		m.bus.Publish(cancelledEvent(id))

	case item.RetryCount < maxRetries:
		item.RetryCount++
		m.mu.Lock()
		position := m.queue.Insert(item)
		m.mu.Unlock()

		m.logger.Warn().
			Err(err).
			Str("id", id).
			Str("kind", errorKind(err)).
			Int("attempt", item.RetryCount).
			Int("maxRetries", maxRetries).
			Msg("Download failed, retrying")
		m.bus.Publish(queuedEvent(id, position))

	default:
		m.logger.Error().
			Err(err).
			Str("id", id).
			Str("kind", errorKind(err)).
			Int("retryCount", item.RetryCount).
			Msg("Download failed")
		m.bus.Publish(failedEvent(Failure{
			ID:         id,
			Message:    err.Error(),
			RetryCount: item.RetryCount,
		}))
	}

	m.advance()
}
