package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
)

func inv(eventID string) Invalidation {
	return model.Invalidation{EventID: eventID, Reason: "test", At: time.Now()}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if !q.Enqueue(ctx, inv("e1")) {
		t.Fatal("expected enqueue to succeed")
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.EventID != "e1" {
		t.Errorf("expected e1, got %v", got.EventID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if !q.Enqueue(ctx, inv("e1")) || !q.Enqueue(ctx, inv("e2")) {
		t.Fatal("expected enqueue to succeed")
	}
	if q.Enqueue(ctx, inv("e3")) {
		t.Error("expected enqueue to fail when full")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue()
	ctx := context.Background()

	q.Enqueue(ctx, inv("e1"))
	if err := q.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if q.Enqueue(ctx, inv("e2")) {
		t.Error("expected enqueue to fail after close")
	}

	// The backlog drains before the channel closes.
	var got []string
	for i := range q.Dequeue(ctx) {
		got = append(got, i.EventID)
	}
	if len(got) != 1 || got[0] != "e1" {
		t.Errorf("expected [e1], got %v", got)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if q.Enqueue(ctx, inv("e1")) {
		t.Error("expected enqueue to fail with a cancelled context")
	}

	select {
	case _, ok := <-q.Dequeue(ctx):
		if ok {
			t.Error("expected dequeue channel to close")
		}
	case <-time.After(time.Second):
		t.Error("dequeue channel did not close")
	}
}

func TestInMemoryQueue_ConcurrentConsumers(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(100))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 100; i++ {
		q.Enqueue(ctx, inv("e"))
	}
	q.Close()

	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range q.Dequeue(ctx) {
				mu.Lock()
				total++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if total != 100 {
		t.Errorf("expected 100 invalidations consumed, got %d", total)
	}
}
