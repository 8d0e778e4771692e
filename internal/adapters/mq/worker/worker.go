// Package worker runs refresh passes: each invalidation taken off the queue
// becomes a full fetch and aggregation whose snapshot replaces the last one.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Queue defines how workers receive invalidations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Invalidation
}

// Publisher receives finished snapshots. It reports whether the snapshot
// replaced the current one.
type Publisher interface {
	Publish(snap *model.Snapshot) bool
}

// InMemoryWorker consumes invalidations until its queue closes.
type InMemoryWorker struct {
	queue     Queue
	refresher *Refresher
	publisher Publisher
	name      string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(queue Queue, refresher *Refresher, publisher Publisher, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		refresher: refresher,
		publisher: publisher,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run processes invalidations until ctx is done, Shutdown is called or the
// queue closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ch := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case inv, ok := <-ch:
			if !ok {
				return
			}
			if err := w.process(ctx, inv); err != nil {
				w.logger.Error(ctx, "refresh failed, keeping previous snapshot",
					logger.String("event_id", inv.EventID),
					logger.String("reason", inv.Reason),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current pass.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) process(ctx context.Context, inv model.Invalidation) error {
	snap, err := w.refresher.Refresh(ctx, inv.EventID)
	if err != nil {
		metrics.RecordRefreshError(stage(err))
		metrics.RecordErrorByComponent("worker", stage(err))
		return err
	}
	if w.publisher.Publish(snap) {
		metrics.RecordSnapshotPublished()
	} else {
		metrics.RecordSnapshotStale()
	}
	w.logger.Debug(ctx, "snapshot refreshed",
		logger.String("event_id", inv.EventID),
		logger.Uint64("version", snap.Version),
		logger.Int("records", len(snap.Records)),
		logger.Duration("lag", time.Since(inv.At)))
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates workerCount workers. A count below one uses the number
// of CPUs.
func NewPool(workerCount int, queue Queue, refresher *Refresher, publisher Publisher) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		p.workers[i] = NewInMemoryWorker(queue, refresher, publisher, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue, if it can be closed, and waits for the workers.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("worker %d: %w", i, shutdownCtx.Err())
		}
	}
	return nil
}
