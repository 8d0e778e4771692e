package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/okian/judgeboard/pkg/logger"
)

// ReasonResync marks invalidations raised by the periodic resync.
const ReasonResync = "resync"

// ErrInvalidInterval is returned for a non-positive resync interval.
var ErrInvalidInterval = errors.New("resync interval must be positive")

// EventLister lists the events to resync.
type EventLister interface {
	EventIDs(ctx context.Context) ([]string, error)
}

// Resync periodically invalidates every known event so a missed database
// notification is eventually picked up.
type Resync struct {
	scheduler gocron.Scheduler
	events    EventLister
	target    Invalidator
	interval  time.Duration
	logger    logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewResync schedules a resync every interval. Call Start to begin.
func NewResync(events EventLister, target Invalidator, interval time.Duration, opts ...ResyncOption) (*Resync, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Resync{
		scheduler: sched,
		events:    events,
		target:    target,
		interval:  interval,
		logger:    logger.Get().Named("resync"),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(r)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := r.RunOnce(r.ctx); err != nil {
				r.logger.Error(r.ctx, "resync failed", logger.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule resync: %w", err)
	}
	return r, nil
}

// Start begins running the job in the background.
func (r *Resync) Start() {
	r.scheduler.Start()
	r.logger.Info(r.ctx, "resync scheduled", logger.Duration("interval", r.interval))
}

// RunOnce invalidates every known event and returns how many were accepted.
func (r *Resync) RunOnce(ctx context.Context) (int, error) {
	ids, err := r.events.EventIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list events: %w", err)
	}
	accepted := 0
	for _, id := range ids {
		if r.target.Invalidate(ctx, id, ReasonResync) {
			accepted++
		}
	}
	r.logger.Debug(ctx, "resync pass", logger.Int("events", len(ids)), logger.Int("accepted", accepted))
	return accepted, nil
}

// Shutdown stops the scheduler and waits for a running pass to return.
func (r *Resync) Shutdown() error {
	r.cancel()
	return r.scheduler.Shutdown()
}
