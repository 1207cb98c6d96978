package download

import "sync"

// AsyncListener queues events and hands them to a handler on its own
// goroutine, so slow consumers such as database writers never hold up the
// scheduler. Events are handled in publish order. The queue is unbounded.
type AsyncListener struct {
	handle func(Event)
	filter func(Event) bool

	mu      sync.Mutex
	pending []Event
	signal  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewAsyncListener wraps handle. filter may be nil; events for which it
// returns false are dropped without being queued.
func NewAsyncListener(handle func(Event), filter func(Event) bool) *AsyncListener {
	return &AsyncListener{
		handle: handle,
		filter: filter,
		signal: make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Listen is a Listener. It never blocks.
func (a *AsyncListener) Listen(e Event) {
	if a.filter != nil && !a.filter(e) {
		return
	}

	a.mu.Lock()
	a.pending = append(a.pending, e)
	a.mu.Unlock()

	select {
	case a.signal <- struct{}{}:
	default:
	}
}

// Start launches the handler goroutine.
func (a *AsyncListener) Start() {
	a.startOnce.Do(func() { go a.loop() })
}

// Stop handles every queued event and then stops the handler goroutine.
// Start must have been called.
func (a *AsyncListener) Stop() {
	a.stopOnce.Do(func() { close(a.stop) })
	<-a.done
}

func (a *AsyncListener) loop() {
	defer close(a.done)
	for {
		select {
		case <-a.signal:
			a.drain()
		case <-a.stop:
			a.drain()
			return
		}
	}
}

func (a *AsyncListener) drain() {
	for {
		a.mu.Lock()
		batch := a.pending
		a.pending = nil
		a.mu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, e := range batch {
			a.handle(e)
		}
	}
}

// SkipProgress is a filter that drops progress samples.
func SkipProgress(e Event) bool {
	return e.Type != EventProgress
}
