package indexer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"file-indexer/internal/metrics"
)

// ErrQueueClosed is returned by Push after Close.
var ErrQueueClosed = errors.New("queue closed")

// Entry is a discovered filesystem entry awaiting a worker.
type Entry struct {
	Name string
	Path string
}

// Queue is the bounded hand-off between the collector and the workers.
// Push blocks while the queue is full. Close marks the end of the stream;
// workers keep popping until the remaining entries are drained.
//
// Push and Close belong to the single producer. Pop is safe for any number
// of consumers.
type Queue struct {
	items     chan Entry
	closed    atomic.Bool
	closeOnce sync.Once
	highWater atomic.Int64
}

// NewQueue creates a queue holding at most capacity pending entries.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{items: make(chan Entry, capacity)}
}

// Push enqueues e, blocking while the queue is full. It returns ctx.Err()
// if ctx ends first.
func (q *Queue) Push(ctx context.Context, e Entry) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	select {
	case q.items <- e:
		q.observe()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pop returns the next entry. ok is false once the queue is closed and empty.
func (q *Queue) Pop() (e Entry, ok bool) {
	e, ok = <-q.items
	if ok {
		metrics.ScanQueueDepth.Set(float64(len(q.items)))
	}
	return e, ok
}

// Items exposes the receive side for range loops. Depth metrics are only
// updated by Pop.
func (q *Queue) Items() <-chan Entry { return q.items }

// Close signals that no more entries will be pushed.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.items)
	})
}

// Len returns the number of pending entries.
func (q *Queue) Len() int { return len(q.items) }

// Cap returns the queue capacity.
func (q *Queue) Cap() int { return cap(q.items) }

// HighWater returns the largest pending length observed after a push.
func (q *Queue) HighWater() int64 { return q.highWater.Load() }

func (q *Queue) observe() {
	n := int64(len(q.items))
	metrics.ScanQueueDepth.Set(float64(n))
	for {
		cur := q.highWater.Load()
		if n <= cur || q.highWater.CompareAndSwap(cur, n) {
			return
		}
	}
}
