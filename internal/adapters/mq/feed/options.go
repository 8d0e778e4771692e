package feed

import (
	"time"

	"github.com/okian/judgeboard/pkg/logger"
)

// ListenerOption applies a configuration option to the PgListener.
type ListenerOption func(*PgListener)

// WithListenerLogger sets a custom logger for the listener.
func WithListenerLogger(l logger.Logger) ListenerOption {
	return func(p *PgListener) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBackoff sets the reconnect delay range.
func WithBackoff(minDelay, maxDelay time.Duration) ListenerOption {
	return func(p *PgListener) {
		if minDelay > 0 {
			p.minBackoff = minDelay
		}
		if maxDelay >= p.minBackoff {
			p.maxBackoff = maxDelay
		}
	}
}

// withDialer replaces the pgx dialer in tests.
func withDialer(d dialFunc) ListenerOption {
	return func(p *PgListener) {
		p.dial = d
	}
}

// ResyncOption applies a configuration option to the Resync job.
type ResyncOption func(*Resync)

// WithResyncLogger sets a custom logger for the resync job.
func WithResyncLogger(l logger.Logger) ResyncOption {
	return func(r *Resync) {
		if l != nil {
			r.logger = l
		}
	}
}
