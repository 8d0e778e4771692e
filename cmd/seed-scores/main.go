package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/seeding"
	"github.com/okian/judgeboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultJudges  = 5
	defaultRate    = 50
	defaultTimeout = 10 * time.Second
	defaultSettle  = 10 * time.Second
	runTimeout     = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		fixture = flag.String("fixture", "", "YAML fixture describing events, tracks and projects")
		eventID = flag.String("event", "", "Only seed this event")
		judges  = flag.Int("judges", defaultJudges, "Judges per project and track")
		workers = flag.Int("workers", runtime.NumCPU(), "Number of concurrent submitters")
		rps     = flag.Float64("rate", defaultRate, "Submissions per second, 0 for unlimited")
		seed    = flag.Uint64("seed", 1, "Random seed for generated scores")
		settle  = flag.Duration("settle", defaultSettle, "How long to wait for the leaderboard to converge")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help || *fixture == "" {
		seeding.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_, err := seeding.Run(ctx, &seeding.Config{
		BaseURL:     *baseURL,
		FixtureFile: *fixture,
		EventID:     *eventID,
		Judges:      *judges,
		Workers:     *workers,
		Rate:        *rps,
		Timeout:     *timeout,
		Settle:      *settle,
		Seed:        *seed,
		DefaultMin:  model.DefaultMin,
		DefaultMax:  model.DefaultMax,
	})
	if err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		os.Exit(1)
	}
}
