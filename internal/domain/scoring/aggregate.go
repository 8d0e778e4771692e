// Package scoring folds judges' score records into ranked per-track
// leaderboards.
//
// Aggregation is a pure, single pass over a fully fetched snapshot. Data
// that does not fit the configuration is dropped per entry and never
// aborts the pass: a judge's malformed submission must not hide the rest
// of a leaderboard.
package scoring

import (
	"sort"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Stats describes what one aggregation pass consumed and dropped.
type Stats struct {
	Records int
	Entries int
	Skipped map[string]int
}

func (s *Stats) skip(reason string) {
	if s.Skipped == nil {
		s.Skipped = make(map[string]int)
	}
	s.Skipped[reason]++
}

// Aggregate builds the per-track leaderboards for records under cfg.
func Aggregate(records []model.ScoreRecord, cfg model.ScoringConfiguration) model.TrackAggregates {
	out, _ := AggregateWithStats(records, cfg)
	return out
}

// AggregateWithStats is Aggregate plus a per-pass account of dropped
// entries.
func AggregateWithStats(records []model.ScoreRecord, cfg model.ScoringConfiguration) (model.TrackAggregates, Stats) {
	var stats Stats
	tracks := make(model.TrackAggregates)
	// index[trackID][projectID] -> position in tracks[trackID]
	index := make(map[string]map[string]int)

	for i := range records {
		rec := &records[i]
		stats.Records++

		positions, ok := index[rec.TrackID]
		if !ok {
			positions = make(map[string]int)
			index[rec.TrackID] = positions
		}
		pos, ok := positions[rec.ProjectID]
		if !ok {
			// First occurrence owns the display fields.
			tracks[rec.TrackID] = append(tracks[rec.TrackID], model.ProjectAggregate{
				ProjectID:       rec.ProjectID,
				ProjectName:     rec.ProjectName,
				LeadName:        rec.LeadName,
				CriterionScores: make(map[string]model.CriterionScore),
			})
			pos = len(tracks[rec.TrackID]) - 1
			positions[rec.ProjectID] = pos
		}
		project := &tracks[rec.TrackID][pos]

		track, _ := ResolveTrack(&cfg, rec.TrackID, rec.TrackName)
		project.TotalScore += fold(project, track, rec.Scores, &stats)

		// Every record is one judge's pass, even if none of its entries
		// survived classification.
		project.NumberOfJudges++
		project.AverageScore = project.TotalScore / float64(project.NumberOfJudges)
		for id, cs := range project.CriterionScores {
			cs.Average = cs.Total / float64(project.NumberOfJudges)
			project.CriterionScores[id] = cs
		}
	}

	for id := range tracks {
		rank(tracks[id])
	}
	return tracks, stats
}

// fold applies one record's entries to project and returns the record's
// weighted total.
func fold(project *model.ProjectAggregate, track *model.TrackConfig, scores model.Scores, stats *Stats) float64 {
	var total float64
	for _, id := range sortedCriterionIDs(scores) {
		entry, reason, ok := Classify(track, id, scores[id])
		if !ok {
			stats.skip(reason)
			continue
		}
		stats.Entries++
		switch e := entry.(type) {
		case ChoiceEntry:
			if project.ChoiceCounts == nil {
				project.ChoiceCounts = make(map[string]map[string]int)
			}
			counts, ok := project.ChoiceCounts[e.CriterionID]
			if !ok {
				counts = make(map[string]int)
				project.ChoiceCounts[e.CriterionID] = counts
			}
			counts[e.Value]++
		case NumericEntry:
			total += e.Weighted()
			cs := project.CriterionScores[e.CriterionID]
			cs.Total += e.Value
			project.CriterionScores[e.CriterionID] = cs
		}
	}
	return total
}

// rank orders projects by average score, highest first. Equal averages keep
// encounter order.
func rank(projects []model.ProjectAggregate) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].AverageScore > projects[j].AverageScore
	})
}

// sortedCriterionIDs fixes the summation order so repeated passes over the
// same input produce identical floats.
func sortedCriterionIDs(scores model.Scores) []string {
	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
