package seeding

import "os"

// ShowHelp prints usage information for the seeding tool.
func ShowHelp() {
	os.Stdout.WriteString(`Judgeboard Seed Tool
====================

Submits generated judge scores to a running judgeboard and checks the served
leaderboard against a locally computed one. Start the server with the same
fixture (JUDGEBOARD_SEED_FILE) so projects and tracks exist.

Usage:
  go run ./cmd/seed-scores -fixture seed.yaml [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -fixture string
        YAML fixture describing events, tracks and projects
  -event string
        Only seed this event
  -judges int
        Judges per project and track (default 5)
  -workers int
        Number of concurrent submitters (default CPU cores)
  -rate float
        Submissions per second, 0 for unlimited (default 50)
  -seed uint
        Random seed for generated scores (default 1)
  -settle duration
        How long to wait for the leaderboard to converge (default 10s)
  -timeout duration
        HTTP request timeout (default 10s)
  -help
        Show this help message
`)
}
