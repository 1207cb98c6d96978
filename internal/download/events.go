// Package download implements the download scheduler: a priority queue of
// pending requests, a bounded set of concurrently streaming workers with retry
// and cancellation, and a synchronous event bus reporting every lifecycle
// transition.
package download

import "sync"

// EventType identifies a lifecycle transition.
type EventType string

const (
	EventQueued    EventType = "queued"
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event is a single lifecycle notification. Which payload field is set
// depends on Type.
type Event struct {
	Type     EventType `json:"type"`
	ID       string    `json:"id"`
	Position int       `json:"position,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
	Result   *Result   `json:"result,omitempty"`
	Failure  *Failure  `json:"failure,omitempty"`
}

// Listener receives events. It runs on the publisher's goroutine.
type Listener func(Event)

// Bus delivers events synchronously, in publish order, to every listener
// registered at the time of publishing. Events are never buffered or replayed.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
	order     []int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns a function that removes it.
func (b *Bus) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = l
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.listeners, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Publish delivers the event to all current listeners in registration order.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	targets := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		targets = append(targets, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, l := range targets {
		l(e)
	}
}

func queuedEvent(id string, position int) Event {
	return Event{Type: EventQueued, ID: id, Position: position}
}

func startedEvent(id string) Event {
	return Event{Type: EventStarted, ID: id}
}

func cancelledEvent(id string) Event {
	return Event{Type: EventCancelled, ID: id}
}

func progressEvent(p Progress) Event {
	return Event{Type: EventProgress, ID: p.ID, Progress: &p}
}

func completedEvent(r Result) Event {
	return Event{Type: EventCompleted, ID: r.ID, Result: &r}
}

func failedEvent(f Failure) Event {
	return Event{Type: EventFailed, ID: f.ID, Failure: &f}
}
