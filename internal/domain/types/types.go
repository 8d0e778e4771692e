// Package types contains the response shapes shared by the HTTP API
package types

import (
	"sort"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Entry represents a leaderboard row
type Entry struct {
	Rank            int                             `json:"rank"`
	ProjectID       string                          `json:"project_id"`
	ProjectName     string                          `json:"project_name"`
	LeadName        string                          `json:"lead_name"`
	AverageScore    float64                         `json:"average_score"`
	TotalScore      float64                         `json:"total_score"`
	NumberOfJudges  int                             `json:"number_of_judges"`
	CriterionScores map[string]model.CriterionScore `json:"criterion_scores,omitempty"`
	ChoiceCounts    map[string]map[string]int       `json:"choice_counts,omitempty"`
}

// Track is the ranked leaderboard of one track
type Track struct {
	TrackID   string  `json:"track_id"`
	TrackName string  `json:"track_name"`
	Entries   []Entry `json:"entries"`
}

// Leaderboard is the response of the leaderboard endpoints
type Leaderboard struct {
	EventID    string    `json:"event_id"`
	Version    uint64    `json:"version"`
	ComputedAt time.Time `json:"computed_at"`
	Tracks     []Track   `json:"tracks"`
}

// ExportResult lists the files written by an export run
type ExportResult struct {
	EventID string   `json:"event_id"`
	Kind    string   `json:"kind"`
	Files   []string `json:"files"`
}

// FromSnapshot converts snap into a Leaderboard. When track is not empty only
// the track with that id or display name is included.
func FromSnapshot(snap *model.Snapshot, track string) Leaderboard {
	out := Leaderboard{
		EventID:    snap.EventID,
		Version:    snap.Version,
		ComputedAt: snap.ComputedAt,
		Tracks:     []Track{},
	}

	ids := make([]string, 0, len(snap.Tracks))
	for id := range snap.Tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		name := trackName(snap, id)
		if track != "" && track != id && track != name {
			continue
		}
		projects := snap.Tracks[id]
		entries := make([]Entry, len(projects))
		for i, p := range projects {
			entries[i] = Entry{
				Rank:            i + 1,
				ProjectID:       p.ProjectID,
				ProjectName:     p.ProjectName,
				LeadName:        p.LeadName,
				AverageScore:    p.AverageScore,
				TotalScore:      p.TotalScore,
				NumberOfJudges:  p.NumberOfJudges,
				CriterionScores: p.CriterionScores,
				ChoiceCounts:    p.ChoiceCounts,
			}
		}
		out.Tracks = append(out.Tracks, Track{TrackID: id, TrackName: name, Entries: entries})
	}
	return out
}

func trackName(snap *model.Snapshot, id string) string {
	for _, t := range snap.EventTracks {
		if t.TrackID == id && t.Name != "" {
			return t.Name
		}
	}
	if cfg, ok := snap.Config.Tracks[id]; ok && cfg.Name != "" {
		return cfg.Name
	}
	return id
}
