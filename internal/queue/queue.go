// Package queue provides the fixed-capacity FIFO used to hand out deck slots.
package queue

// Queue is a ring buffer of ints with a capacity fixed at construction.
// It is only mutated from Bubbletea's single-threaded Update loop.
type Queue struct {
	items []int
	head  int
	size  int
}

// New creates an empty Queue holding at most capacity items.
func New(capacity int) *Queue {
	return &Queue{items: make([]int, max(capacity, 0))}
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return q.size }

// Cap returns the fixed capacity.
func (q *Queue) Cap() int { return len(q.items) }

// Push appends v at the tail. Returns false if the queue is full.
func (q *Queue) Push(v int) bool {
	if q.size == len(q.items) {
		return false
	}
	q.items[(q.head+q.size)%len(q.items)] = v
	q.size++
	return true
}

// Pop removes and returns the head. Returns false if the queue is empty.
func (q *Queue) Pop() (int, bool) {
	if q.size == 0 {
		return 0, false
	}
	v := q.items[q.head]
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return v, true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (int, bool) {
	if q.size == 0 {
		return 0, false
	}
	return q.items[q.head], true
}

// Contains reports whether v is queued.
func (q *Queue) Contains(v int) bool {
	for i := range q.size {
		if q.items[(q.head+i)%len(q.items)] == v {
			return true
		}
	}
	return false
}

// Items returns the queued values in order from head to tail.
func (q *Queue) Items() []int {
	out := make([]int, 0, q.size)
	for i := range q.size {
		out = append(out, q.items[(q.head+i)%len(q.items)])
	}
	return out
}
