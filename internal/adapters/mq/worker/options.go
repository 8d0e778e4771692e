package worker

import (
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/okian/judgeboard/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// RefresherOption applies a configuration option to the Refresher.
type RefresherOption func(*Refresher)

// WithTracer sets the tracer used for refresh spans.
func WithTracer(t trace.Tracer) RefresherOption {
	return func(r *Refresher) {
		if t != nil {
			r.tracer = t
		}
	}
}

// WithClock overrides the time source stamped on snapshots.
func WithClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}
