package download

import (
	"slices"
	"sync"
	"testing"
	"time"
)

func TestAsyncListener_DeliversInOrderOffPublisher(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var got []EventType

	a := NewAsyncListener(func(e Event) {
		<-release
		mu.Lock()
		got = append(got, e.Type)
		mu.Unlock()
	}, SkipProgress)
	a.Start()

	bus := NewBus()
	bus.Subscribe(a.Listen)

	done := make(chan struct{})
	go func() {
		bus.Publish(queuedEvent("a", 1))
		bus.Publish(startedEvent("a"))
		bus.Publish(progressEvent(Progress{ID: "a"}))
		bus.Publish(completedEvent(Result{ID: "a"}))
		close(done)
	}()

	// Publishing must not wait for the blocked handler.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow async listener")
	}

	close(release)
	a.Stop()

	want := []EventType{EventQueued, EventStarted, EventCompleted}
	if !slices.Equal(got, want) {
		t.Errorf("handled %v, want %v", got, want)
	}
}

func TestAsyncListener_StopIsIdempotent(t *testing.T) {
	var n int
	a := NewAsyncListener(func(Event) { n++ }, nil)
	a.Listen(cancelledEvent("x"))
	a.Start()
	a.Start()
	a.Stop()
	a.Stop()
	if n != 1 {
		t.Errorf("handler called %d times, want 1", n)
	}
}
