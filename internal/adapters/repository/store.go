// Package repository provides the score record source and the scoring
// configuration source, backed by PostgreSQL or by memory.
package repository

import (
	"context"
	"fmt"

	"github.com/okian/judgeboard/internal/domain/model"
)

// NotifyChannel is the PostgreSQL channel the score trigger notifies on.
// The payload is the event id of the changed score.
const NotifyChannel = "project_scores_changed"

// Store provides read/write access to judge scores and track configuration.
type Store interface {
	// FetchScoreRecords returns every score of an event joined with project
	// and track display fields, ordered by track id. Zero rows is not an error.
	FetchScoreRecords(ctx context.Context, eventID string) ([]model.ScoreRecord, error)

	// FetchEventTracks returns the track rows of an event.
	FetchEventTracks(ctx context.Context, eventID string) ([]model.EventTrack, error)

	// UpsertScore inserts or replaces the score for the record's
	// (project, judge, track) triple and returns the stored record.
	UpsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error)

	// EventIDs lists the events that have at least one project.
	EventIDs(ctx context.Context) ([]string, error)
}

// Seeder loads fixture data into a store.
type Seeder interface {
	Seed(ctx context.Context, f *Fixture) error
}

// BuildConfig turns track rows into a scoring configuration keyed by track id.
// Rows without a track id are ignored.
func BuildConfig(tracks []model.EventTrack, defaultMin, defaultMax float64) model.ScoringConfiguration {
	cfg := model.ScoringConfiguration{
		Tracks:     make(map[string]model.TrackConfig, len(tracks)),
		DefaultMin: defaultMin,
		DefaultMax: defaultMax,
	}
	for _, t := range tracks {
		if t.TrackID == "" {
			continue
		}
		tc := model.TrackConfig{Name: t.Name, Criteria: t.ScoringCriteria.Criteria}
		if tc.Name == "" {
			tc.Name = t.ScoringCriteria.Name
		}
		cfg.Tracks[t.TrackID] = tc
	}
	return cfg
}

// FetchConfig loads the track rows of an event and builds its configuration.
func FetchConfig(ctx context.Context, s Store, eventID string, defaultMin, defaultMax float64) (model.ScoringConfiguration, []model.EventTrack, error) {
	tracks, err := s.FetchEventTracks(ctx, eventID)
	if err != nil {
		return model.ScoringConfiguration{}, nil, fmt.Errorf("fetch event tracks: %w", err)
	}
	return BuildConfig(tracks, defaultMin, defaultMax), tracks, nil
}

func validateRecord(rec *model.ScoreRecord) error {
	switch {
	case rec.ProjectID == "":
		return fmt.Errorf("%w: project_id is required", ErrInvalidRecord)
	case rec.TrackID == "":
		return fmt.Errorf("%w: track_id is required", ErrInvalidRecord)
	case rec.JudgeID == "":
		return fmt.Errorf("%w: judge_id is required", ErrInvalidRecord)
	}
	return nil
}
