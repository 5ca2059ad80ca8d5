package feed

import (
	"sync"

	"github.com/vovakirdan/heatchat/internal/core"
)

// DefaultQueueCapacity bounds the pending queue when no capacity is given.
const DefaultQueueCapacity = 64

// Queue is a bounded FIFO of pushed messages not yet shown. When full, the
// oldest pending message is dropped to make room.
type Queue struct {
	mu       sync.Mutex
	items    []core.Message
	capacity int
	dropped  uint64
}

// NewQueue creates a queue holding at most capacity messages.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{
		items:    make([]core.Message, 0, capacity),
		capacity: capacity,
	}
}

// Push appends msg. It reports false when an older message was dropped.
func (q *Queue) Push(msg core.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := true
	if len(q.items) == q.capacity {
		q.items[0] = core.Message{}
		q.items = q.items[1:]
		q.dropped++
		kept = false
	}
	q.items = append(q.items, msg)
	return kept
}

// Pop removes and returns the oldest pending message.
func (q *Queue) Pop() (core.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return core.Message{}, false
	}
	msg := q.items[0]
	q.items[0] = core.Message{}
	q.items = q.items[1:]
	return msg, true
}

// Len returns the number of pending messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return q.capacity
}

// Dropped returns how many messages were discarded on overflow.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
