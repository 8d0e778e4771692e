package seeding

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/types"
	"github.com/okian/judgeboard/pkg/logger"
)

const pollInterval = 100 * time.Millisecond

// ErrNoEvents is returned when the fixture holds no matching event.
var ErrNoEvents = errors.New("no events to seed")

// Run seeds every selected fixture event and verifies the result.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("seeding")
	stats := &Stats{StartTime: time.Now()}

	fixture, err := repository.LoadFixture(cfg.FixtureFile)
	if err != nil {
		return stats, err
	}
	client := NewClient(cfg.BaseURL, cfg.Timeout)
	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	seeded := 0
	for _, ev := range fixture.Events {
		if cfg.EventID != "" && ev.EventID != cfg.EventID {
			continue
		}
		seeded++

		subs := Generate(ev, cfg.Judges, rng, cfg.DefaultMin, cfg.DefaultMax)
		stats.Generated += len(subs)
		log.Info(ctx, "submitting scores",
			logger.String("event_id", ev.EventID),
			logger.Int("submissions", len(subs)),
			logger.Int("workers", cfg.Workers))

		submit(ctx, cfg, client, subs, stats, log)

		expected := Expected(ev, subs, cfg.DefaultMin, cfg.DefaultMax)
		lb, err := waitForLeaderboard(ctx, client, ev.EventID, expectedJudgeCount(expected), cfg.Settle)
		if err != nil {
			return stats, err
		}
		if err := Verify(expected, lb); err != nil {
			return stats, fmt.Errorf("event %s: %w", ev.EventID, err)
		}
		stats.Verified += len(expected)
		log.Info(ctx, "leaderboard verified",
			logger.String("event_id", ev.EventID),
			logger.Uint64("version", lb.Version),
			logger.Int("tracks", len(expected)))
	}
	if seeded == 0 {
		return stats, ErrNoEvents
	}

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "seeding finished",
		logger.Int("generated", stats.Generated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.Duration("duration", stats.Duration))
	return stats, nil
}

// submit posts subs from a pool of workers, throttled by cfg.Rate.
func submit(ctx context.Context, cfg *Config, client *Client, subs []service.Submission, stats *Stats, log logger.Logger) {
	limit := rate.Inf
	if cfg.Rate > 0 {
		limit = rate.Limit(cfg.Rate)
	}
	limiter := rate.NewLimiter(limit, max(1, cfg.Workers))

	workers := max(1, cfg.Workers)
	jobs := make(chan service.Submission, workers*2)
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				result, err := client.Submit(ctx, sub)
				if err != nil {
					log.Warn(ctx, "submission failed", logger.Error(err))
				}
				mu.Lock()
				stats.Submitted++
				switch result {
				case ResultAccepted:
					stats.Accepted++
				case ResultDuplicate:
					stats.Duplicates++
				default:
					stats.Failed++
				}
				mu.Unlock()
			}
		}()
	}

	for _, sub := range subs {
		select {
		case jobs <- sub:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()
}

// waitForLeaderboard polls until the leaderboard reflects want judge passes
// or settle elapses.
func waitForLeaderboard(ctx context.Context, client *Client, eventID string, want int, settle time.Duration) (types.Leaderboard, error) {
	deadline := time.Now().Add(settle)
	for {
		lb, err := client.Leaderboard(ctx, eventID)
		if err != nil {
			return lb, err
		}
		if judgeCount(lb) == want || time.Now().After(deadline) {
			return lb, nil
		}
		select {
		case <-ctx.Done():
			return lb, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
