// Package seeding drives a running judgeboard with generated judge
// submissions and checks the served leaderboard against a local aggregate.
package seeding

import "time"

// Config holds configuration for a seeding run
type Config struct {
	BaseURL     string        // Base URL of the service
	FixtureFile string        // YAML fixture the server was seeded with
	EventID     string        // Event to score; empty means every fixture event
	Judges      int           // Judges per project and track
	Workers     int           // Number of concurrent submitters
	Rate        float64       // Submissions per second; 0 means unlimited
	Timeout     time.Duration // HTTP request timeout
	Settle      time.Duration // How long to wait for the leaderboard to converge
	Seed        uint64        // Random seed for generated scores
	DefaultMin  float64       // Bounds for criteria without min
	DefaultMax  float64       // Bounds for criteria without max
}

// Stats holds run statistics
type Stats struct {
	Generated  int
	Submitted  int
	Accepted   int
	Duplicates int
	Failed     int
	Verified   int // tracks whose leaderboard matched
	StartTime  time.Time
	Duration   time.Duration
}
