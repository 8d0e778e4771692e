package seeding

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/scoring"
	"github.com/okian/judgeboard/internal/domain/types"
)

const scoreTolerance = 1e-9

// ErrMismatch is returned when the served leaderboard differs from the
// expected one.
var ErrMismatch = errors.New("leaderboard mismatch")

// Expected aggregates the fixture's scores plus subs the way the service
// does. A later submission for the same project, track and judge replaces
// the earlier one.
func Expected(ev repository.FixtureEvent, subs []service.Submission, defaultMin, defaultMax float64) model.TrackAggregates {
	projects := make(map[string]model.Project, len(ev.Projects))
	for _, p := range ev.Projects {
		projects[p.ProjectID] = p
	}
	names := make(map[string]string, len(ev.Tracks))
	for _, t := range ev.Tracks {
		names[t.TrackID] = t.Name
	}

	var records []model.ScoreRecord
	index := make(map[string]int)
	add := func(rec model.ScoreRecord) {
		p := projects[rec.ProjectID]
		rec.ProjectName, rec.LeadName, rec.LeadEmail = p.ProjectName, p.LeadName, p.LeadEmail
		rec.TrackName = names[rec.TrackID]
		if i, ok := index[rec.Key()]; ok {
			records[i] = rec
			return
		}
		index[rec.Key()] = len(records)
		records = append(records, rec)
	}
	for _, sc := range ev.Scores {
		add(sc.Record(ev.EventID))
	}
	for _, sub := range subs {
		add(model.ScoreRecord{
			ProjectID: sub.ProjectID,
			TrackID:   sub.TrackID,
			JudgeID:   sub.JudgeID,
			EventID:   sub.EventID,
			Scores:    sub.Scores,
		})
	}
	return scoring.Aggregate(records, repository.BuildConfig(ev.Tracks, defaultMin, defaultMax))
}

// Verify compares a served leaderboard with the expected aggregates. Rank
// order is only checked between different averages since ties keep
// arrival order.
func Verify(expected model.TrackAggregates, got types.Leaderboard) error {
	served := make(map[string]types.Track, len(got.Tracks))
	for _, t := range got.Tracks {
		served[t.TrackID] = t
	}
	var errs []error
	for trackID, want := range expected {
		track, ok := served[trackID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: track %s missing", ErrMismatch, trackID))
			continue
		}
		if len(track.Entries) != len(want) {
			errs = append(errs, fmt.Errorf("%w: track %s has %d projects, want %d", ErrMismatch, trackID, len(track.Entries), len(want)))
			continue
		}
		byProject := make(map[string]model.ProjectAggregate, len(want))
		for _, p := range want {
			byProject[p.ProjectID] = p
		}
		for i, e := range track.Entries {
			p, ok := byProject[e.ProjectID]
			switch {
			case !ok:
				errs = append(errs, fmt.Errorf("%w: track %s has unexpected project %s", ErrMismatch, trackID, e.ProjectID))
			case e.NumberOfJudges != p.NumberOfJudges:
				errs = append(errs, fmt.Errorf("%w: %s/%s judged %d times, want %d", ErrMismatch, trackID, e.ProjectID, e.NumberOfJudges, p.NumberOfJudges))
			case math.Abs(e.AverageScore-p.AverageScore) > scoreTolerance:
				errs = append(errs, fmt.Errorf("%w: %s/%s average %.4f, want %.4f", ErrMismatch, trackID, e.ProjectID, e.AverageScore, p.AverageScore))
			}
			if i > 0 && e.AverageScore > track.Entries[i-1].AverageScore {
				errs = append(errs, fmt.Errorf("%w: track %s not sorted at rank %d", ErrMismatch, trackID, e.Rank))
			}
		}
	}
	return errors.Join(errs...)
}

// judgeCount is the number of records the leaderboard reflects.
func judgeCount(lb types.Leaderboard) int {
	n := 0
	for _, t := range lb.Tracks {
		for _, e := range t.Entries {
			n += e.NumberOfJudges
		}
	}
	return n
}

func expectedJudgeCount(expected model.TrackAggregates) int {
	n := 0
	for _, projects := range expected {
		for _, p := range projects {
			n += p.NumberOfJudges
		}
	}
	return n
}
