package repository

import (
	"time"

	"github.com/okian/judgeboard/pkg/logger"
)

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithChangeHook registers fn to be called with the event id after every
// successful write.
func WithChangeHook(fn func(eventID string)) MemoryOption {
	return func(s *MemoryStore) {
		if fn != nil {
			s.onChange = fn
		}
	}
}

// WithClock overrides the time source used for UpdatedAt.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// GormOption applies a configuration option to the GormStore.
type GormOption func(*GormStore)

// WithGormLogger sets the logger for the GormStore and for the queries gorm
// runs on its behalf.
func WithGormLogger(l logger.Logger) GormOption {
	return func(s *GormStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPingAttempts sets how many times Open pings the database before giving up.
func WithPingAttempts(n int) GormOption {
	return func(s *GormStore) {
		if n > 0 {
			s.pingAttempts = n
		}
	}
}

// WithSlowQueryThreshold sets the duration above which a query is logged as
// slow. Zero disables slow-query logging.
func WithSlowQueryThreshold(d time.Duration) GormOption {
	return func(s *GormStore) {
		if d >= 0 {
			s.slowQuery = d
		}
	}
}
