package queue

import (
	"errors"
	"fmt"
)

var ErrIndex = errors.New("queue index out of range")

// Queue is a FIFO of pending tracks keyed by path. Entries are consumed
// before linear advance. It is not safe for concurrent use.
type Queue struct {
	items []string
}

func New() *Queue {
	return &Queue{}
}

// Enqueue appends path to the back of the queue.
func (q *Queue) Enqueue(path string) {
	q.items = append(q.items, path)
}

// DequeueOr removes and returns the front entry. With an empty queue it
// returns fallback and false.
func (q *Queue) DequeueOr(fallback string) (string, bool) {
	if len(q.items) == 0 {
		return fallback, false
	}
	front := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return front, true
}

// Items returns a copy of the pending entries, front first.
func (q *Queue) Items() []string {
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}

func (q *Queue) Len() int { return len(q.items) }

// Contains reports whether path is pending.
func (q *Queue) Contains(path string) bool {
	for _, p := range q.items {
		if p == path {
			return true
		}
	}
	return false
}

// RemoveAt drops the entry at position i.
func (q *Queue) RemoveAt(i int) error {
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("queue entry %d: %w", i, ErrIndex)
	}
	q.items = append(q.items[:i:i], q.items[i+1:]...)
	return nil
}

// Retain keeps only the entries for which keep returns true, in order.
// It returns the number of dropped entries.
func (q *Queue) Retain(keep func(path string) bool) int {
	kept := q.items[:0]
	for _, p := range q.items {
		if keep(p) {
			kept = append(kept, p)
		}
	}
	dropped := len(q.items) - len(kept)
	q.items = kept
	return dropped
}

func (q *Queue) Clear() {
	q.items = nil
}
