// Package feed carries change signals: database notifications and periodic
// resyncs in, leaderboard update signals out to watchers.
package feed

import (
	"context"
	"sync"

	"github.com/okian/judgeboard/pkg/metrics"
)

// Invalidator accepts "something changed for this event" signals.
type Invalidator interface {
	Invalidate(ctx context.Context, eventID, reason string) bool
}

// InvalidatorFunc adapts a function to an Invalidator.
type InvalidatorFunc func(ctx context.Context, eventID, reason string) bool

// Invalidate calls f.
func (f InvalidatorFunc) Invalidate(ctx context.Context, eventID, reason string) bool {
	return f(ctx, eventID, reason)
}

// Broker fans payload-free signals out to per-event subscribers. Each
// subscription holds at most one pending signal, so a slow subscriber sees
// a burst of publishes as a single wake-up and never blocks the publisher.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[uint64]chan struct{}
	next uint64
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[uint64]chan struct{})}
}

// Subscribe registers interest in eventID. The returned cancel function
// unsubscribes and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(eventID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	b.next++
	id := b.next
	if b.subs[eventID] == nil {
		b.subs[eventID] = make(map[uint64]chan struct{})
	}
	b.subs[eventID][id] = ch
	b.mu.Unlock()
	metrics.AddFeedSubscribers(1)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[eventID], id)
			if len(b.subs[eventID]) == 0 {
				delete(b.subs, eventID)
			}
			b.mu.Unlock()
			close(ch)
			metrics.AddFeedSubscribers(-1)
		})
	}
	return ch, cancel
}

// Publish wakes every subscriber of eventID and returns how many there were.
func (b *Broker) Publish(eventID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs := b.subs[eventID]
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return len(subs)
}

// Subscribers returns the number of subscriptions for eventID.
func (b *Broker) Subscribers(eventID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventID])
}
