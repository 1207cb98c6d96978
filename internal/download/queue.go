package download

import "sort"

// Queue is an in-memory list of pending items ordered by descending priority.
// Items of equal priority keep their insertion order. Queue is not safe for
// concurrent use; the Manager serializes access to it.
type Queue struct {
	items []QueueItem
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Insert appends the item, re-sorts, and returns the item's 1-based position.
func (q *Queue) Insert(item QueueItem) int {
	q.items = append(q.items, item)
	sort.SliceStable(q.items, func(i, j int) bool {
		return q.items[i].Request.Priority > q.items[j].Request.Priority
	})
	return q.position(item.Request.ID)
}

// RemoveByID removes and returns the item with the given id.
func (q *Queue) RemoveByID(id string) (QueueItem, bool) {
	for i, item := range q.items {
		if item.Request.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return item, true
		}
	}
	return QueueItem{}, false
}

// PopHead removes and returns the highest-priority item.
func (q *Queue) PopHead() (QueueItem, bool) {
	if len(q.items) == 0 {
		return QueueItem{}, false
	}
	item := q.items[0]
	q.items[0] = QueueItem{}
	q.items = q.items[1:]
	return item, true
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	return len(q.items)
}

// Contains reports whether an item with the given id is pending.
func (q *Queue) Contains(id string) bool {
	return q.position(id) > 0
}

// Items returns a copy of the pending items in queue order.
func (q *Queue) Items() []QueueItem {
	out := make([]QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) position(id string) int {
	for i, item := range q.items {
		if item.Request.ID == id {
			return i + 1
		}
	}
	return 0
}
