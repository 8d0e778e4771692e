package model

import "time"

// CriterionScore accumulates the raw (unweighted) values for one numeric
// criterion of one project.
type CriterionScore struct {
	Total   float64 `json:"total"`
	Average float64 `json:"average"`
}

// ProjectAggregate is one leaderboard row. It is derived on every
// aggregation pass and never mutated afterwards.
type ProjectAggregate struct {
	ProjectID       string                    `json:"projectId"`
	ProjectName     string                    `json:"projectName"`
	LeadName        string                    `json:"leadName"`
	TotalScore      float64                   `json:"totalScore"`
	NumberOfJudges  int                       `json:"numberOfJudges"`
	AverageScore    float64                   `json:"averageScore"`
	CriterionScores map[string]CriterionScore `json:"criterionScores"`
	ChoiceCounts    map[string]map[string]int `json:"choiceCounts,omitempty"`
}

// TrackAggregates maps a track id to its projects sorted by AverageScore
// descending.
type TrackAggregates map[string][]ProjectAggregate

// Snapshot is the immutable output of one refresh pass for an event.
type Snapshot struct {
	EventID     string
	Version     uint64
	Tracks      TrackAggregates
	Records     []ScoreRecord
	Config      ScoringConfiguration
	EventTracks []EventTrack
	ComputedAt  time.Time
}

// Invalidation signals that an event's score records changed. It carries no
// delta; the receiver always re-fetches in full.
type Invalidation struct {
	EventID string
	Reason  string
	At      time.Time
}
