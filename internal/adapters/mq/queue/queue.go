// Package queue carries invalidation signals from the change feed to the
// refresh workers.
package queue

import (
	"context"
	"sync"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Invalidation is the payload flowing through the queue.
type Invalidation = model.Invalidation

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds an invalidation. It returns false when the queue is
	// full or closed.
	Enqueue(ctx context.Context, inv Invalidation) bool

	// Dequeue returns a channel that receives invalidations until the
	// queue is closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Invalidation

	// Len returns the number of waiting invalidations.
	Len(ctx context.Context) int

	// Close stops accepting invalidations and closes every dequeue channel
	// once the backlog is drained.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue with a buffered channel.
type InMemoryQueue struct {
	items    chan Invalidation
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Invalidation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue never blocks. A full queue drops the signal; a later signal for
// the same event triggers the same full refresh.
func (q *InMemoryQueue) Enqueue(ctx context.Context, inv Invalidation) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.items <- inv:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel fed from the queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Invalidation {
	out := make(chan Invalidation)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case inv, ok := <-q.items:
				if !ok {
					return
				}
				select {
				case out <- inv:
					metrics.RecordQueueDequeue()
					metrics.UpdateQueueSize(len(q.items))
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the number of waiting invalidations.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.items)
	metrics.UpdateQueueSize(n)
	return n
}

// Close shuts the queue. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
