package mqtt

import (
	"context"
	"sync"
	"sync/atomic"
)

// Queue is a bounded FIFO fed by the client library's callbacks and drained
// by a single reader goroutine.
//
// Push never blocks: when the queue is full the item is dropped and counted,
// so a slow reader cannot stall the library's network goroutines.
//
// Thread Safety:
//   - Push, Receive, Close and the accessors are safe for concurrent use.
type Queue[T any] struct {
	items     chan T
	done      chan struct{}
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewQueue creates a queue holding at most size items.
func NewQueue[T any](size int) *Queue[T] {
	if size < 1 {
		size = 1
	}
	return &Queue[T]{
		items: make(chan T, size),
		done:  make(chan struct{}),
	}
}

// Push enqueues item without blocking. It returns false if the queue is
// closed or full; a full queue counts the item as dropped.
func (q *Queue[T]) Push(item T) bool {
	select {
	case <-q.done:
		return false
	default:
	}

	select {
	case q.items <- item:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Receive blocks until an item is available, the queue is closed, or ctx is
// done. Items queued before Close are still delivered; once they are drained
// Receive returns ErrQueueClosed.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	select {
	case item := <-q.items:
		return item, nil
	case <-q.done:
		select {
		case item := <-q.items:
			return item, nil
		default:
			return zero, ErrQueueClosed
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close wakes all receivers. Further pushes are rejected. Close is idempotent.
func (q *Queue[T]) Close() {
	q.closeOnce.Do(func() {
		close(q.done)
	})
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	return len(q.items)
}

// Dropped returns how many items were discarded because the queue was full.
func (q *Queue[T]) Dropped() uint64 {
	return q.dropped.Load()
}
