package download

import (
	"slices"
	"testing"
)

func item(id string, priority int) QueueItem {
	return QueueItem{Request: Request{ID: id, URL: "http://example.invalid/" + id, Filename: id + ".mp4", Priority: priority}}
}

func ids(items []QueueItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Request.ID)
	}
	return out
}

func TestQueue_InsertOrdersByPriorityStable(t *testing.T) {
	q := NewQueue()

	inserts := []struct {
		id       string
		priority int
		want     int
	}{
		{"a", 0, 1},
		{"b", 0, 2},
		{"c", 5, 1},
		{"d", 0, 4},
		{"e", 5, 2},
		{"f", -1, 6},
	}
	for _, in := range inserts {
		if got := q.Insert(item(in.id, in.priority)); got != in.want {
			t.Errorf("Insert(%s, %d) position = %d, want %d", in.id, in.priority, got, in.want)
		}
	}

	want := []string{"c", "e", "a", "b", "d", "f"}
	if got := ids(q.Items()); !slices.Equal(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if q.Len() != 6 {
		t.Errorf("Len() = %d, want 6", q.Len())
	}
}

func TestQueue_PopHead(t *testing.T) {
	q := NewQueue()

	if _, ok := q.PopHead(); ok {
		t.Error("PopHead on empty queue returned an item")
	}

	q.Insert(item("low", 0))
	q.Insert(item("high", 10))

	for _, want := range []string{"high", "low"} {
		got, ok := q.PopHead()
		if !ok {
			t.Fatalf("PopHead returned nothing, want %s", want)
		}
		if got.Request.ID != want {
			t.Errorf("PopHead = %s, want %s", got.Request.ID, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueue_RemoveByID(t *testing.T) {
	q := NewQueue()
	q.Insert(item("a", 0))
	q.Insert(item("b", 0))
	q.Insert(item("c", 0))

	removed, ok := q.RemoveByID("b")
	if !ok {
		t.Fatal("RemoveByID(b) found nothing")
	}
	if removed.Request.ID != "b" {
		t.Errorf("removed %s, want b", removed.Request.ID)
	}
	if got := ids(q.Items()); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("order = %v, want [a c]", got)
	}

	if _, ok := q.RemoveByID("b"); ok {
		t.Error("second RemoveByID(b) reported success")
	}
	if q.Contains("b") {
		t.Error("queue still contains b")
	}
	if !q.Contains("a") {
		t.Error("queue lost a")
	}
}

func TestQueue_RetriedItemGoesToTailOfBand(t *testing.T) {
	q := NewQueue()
	q.Insert(item("a", 0))
	q.Insert(item("b", 0))

	retried := item("x", 0)
	retried.RetryCount = 1

	if pos := q.Insert(retried); pos != 3 {
		t.Errorf("position = %d, want 3", pos)
	}
	if got := ids(q.Items()); !slices.Equal(got, []string{"a", "b", "x"}) {
		t.Errorf("order = %v, want [a b x]", got)
	}
}

func TestQueue_ItemsReturnsCopy(t *testing.T) {
	q := NewQueue()
	q.Insert(item("a", 0))

	items := q.Items()
	items[0].Request.ID = "mutated"

	if got := ids(q.Items()); !slices.Equal(got, []string{"a"}) {
		t.Errorf("order = %v, want [a]", got)
	}
}
