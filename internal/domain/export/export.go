// Package export renders leaderboards and raw judge records as CSV files,
// one file per track, and hands them to a download sink.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/gosimple/slug"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/scoring"
)

// Kind selects which export is produced.
type Kind string

// Export kinds.
const (
	KindAggregate Kind = "aggregate"
	KindRaw       Kind = "raw"
)

// ParseKind validates an export kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAggregate, KindRaw:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ContentType of every exported file.
const ContentType = "text/csv; charset=utf-8"

// missing is written for a value a project has no data for.
const missing = "—"

// File is one rendered CSV payload.
type File struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	TrackID     string `json:"trackId"`
	TrackName   string `json:"trackName"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// FileName builds the download name for a track export.
func FileName(kind Kind, trackName, eventID string) string {
	s := slug.Make(trackName)
	if s == "" {
		s = "track"
	}
	prefix := "scores"
	if kind == KindRaw {
		prefix = "raw-scores"
	}
	return fmt.Sprintf("%s-%s-%s.csv", prefix, s, eventID)
}

// AggregateFiles renders one leaderboard file per track. Tracks whose
// configuration cannot be resolved are skipped. Files are ordered by track id.
func AggregateFiles(aggs model.TrackAggregates, cfg model.ScoringConfiguration, tracks []model.EventTrack, eventID string) ([]File, error) {
	if len(aggs) == 0 {
		return nil, ErrNothingToExport
	}

	ids := make([]string, 0, len(aggs))
	for id := range aggs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	files := make([]File, 0, len(ids))
	for _, trackID := range ids {
		name := trackDisplayName(trackID, &cfg, tracks)
		track, ok := scoring.ResolveTrack(&cfg, trackID, name)
		if !ok {
			continue
		}
		data, err := renderAggregate(aggs[trackID], track)
		if err != nil {
			return nil, fmt.Errorf("render track %s: %w", trackID, err)
		}
		files = append(files, File{
			Name:        FileName(KindAggregate, name, eventID),
			Kind:        KindAggregate,
			TrackID:     trackID,
			TrackName:   name,
			ContentType: ContentType,
			Data:        data,
		})
	}
	if len(files) == 0 {
		return nil, ErrNothingToExport
	}
	return files, nil
}

// trackDisplayName prefers the persisted track row, then a configured track
// whose name appears inside the id, then the id itself.
func trackDisplayName(trackID string, cfg *model.ScoringConfiguration, tracks []model.EventTrack) string {
	for _, t := range tracks {
		if t.TrackID == trackID && t.Name != "" {
			return t.Name
		}
	}
	ids := make([]string, 0, len(cfg.Tracks))
	for id := range cfg.Tracks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if n := cfg.Tracks[id].Name; n != "" && strings.Contains(trackID, n) {
			return n
		}
	}
	return trackID
}

func renderAggregate(projects []model.ProjectAggregate, track *model.TrackConfig) ([]byte, error) {
	numeric := track.Numeric()
	choice := track.Categorical()

	header := []string{"Rank", "Project", "Lead", "Total Average"}
	for _, c := range numeric {
		header = append(header, numericHeader(c))
	}
	for _, c := range choice {
		header = append(header, c.Name)
	}
	header = append(header, "Judges")

	rows := make([][]string, 0, len(projects)+1)
	rows = append(rows, header)
	for i, p := range projects {
		row := []string{
			strconv.Itoa(i + 1),
			p.ProjectName,
			p.LeadName,
			formatScore(p.AverageScore),
		}
		for _, c := range numeric {
			if cs, ok := p.CriterionScores[c.ID]; ok {
				row = append(row, formatScore(cs.Average))
			} else {
				row = append(row, missing)
			}
		}
		for _, c := range choice {
			row = append(row, tally(c.Options, p.ChoiceCounts[c.ID]))
		}
		row = append(row, strconv.Itoa(p.NumberOfJudges))
		rows = append(rows, row)
	}
	return encode(rows)
}

func numericHeader(c model.ScoringCriterion) string {
	if c.Weight == nil || *c.Weight == 1 {
		return c.Name
	}
	return fmt.Sprintf("%s (×%s)", c.Name, strconv.FormatFloat(*c.Weight, 'f', -1, 64))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func tally(options []string, counts map[string]int) string {
	if len(options) == 0 {
		return missing
	}
	parts := make([]string, len(options))
	for i, opt := range options {
		parts[i] = fmt.Sprintf("%s: %d", opt, counts[opt])
	}
	return strings.Join(parts, ", ")
}

// rawGroup collects the records of one track display name.
type rawGroup struct {
	name    string
	trackID string
	track   *model.TrackConfig
	records []model.ScoreRecord
}

// RawFiles renders one file per distinct track display name, in the order
// the names are first seen. Each record becomes one row.
func RawFiles(records []model.ScoreRecord, cfg model.ScoringConfiguration, eventID string) ([]File, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	var groups []*rawGroup
	byName := make(map[string]*rawGroup)
	for _, rec := range records {
		name := rec.TrackName
		if name == "" {
			name = rec.TrackID
		}
		g, ok := byName[name]
		if !ok {
			g = &rawGroup{name: name, trackID: rec.TrackID}
			g.track, _ = scoring.ResolveTrack(&cfg, rec.TrackID, rec.TrackName)
			byName[name] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, rec)
	}

	files := make([]File, 0, len(groups))
	for _, g := range groups {
		data, err := renderRaw(g)
		if err != nil {
			return nil, fmt.Errorf("render track %s: %w", g.name, err)
		}
		files = append(files, File{
			Name:        FileName(KindRaw, g.name, eventID),
			Kind:        KindRaw,
			TrackID:     g.trackID,
			TrackName:   g.name,
			ContentType: ContentType,
			Data:        data,
		})
	}
	return files, nil
}

func renderRaw(g *rawGroup) ([]byte, error) {
	base := []string{"Project Name", "Track", "Comments", "Lead Email"}
	var extra []string
	seen := make(map[string]bool)
	cells := make([]map[string]string, len(g.records))

	for i, rec := range g.records {
		cells[i] = make(map[string]string, len(rec.Scores))
		ids := make([]string, 0, len(rec.Scores))
		for id := range rec.Scores {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			col := rawColumn(g.track, id)
			if !seen[col] {
				seen[col] = true
				extra = append(extra, col)
			}
			cells[i][col] = rawCell(rec.Scores[id])
		}
	}

	rows := make([][]string, 0, len(g.records)+1)
	rows = append(rows, append(append([]string{}, base...), extra...))
	for i, rec := range g.records {
		row := []string{rec.ProjectName, rec.TrackName, rec.Comments, rec.LeadEmail}
		for _, col := range extra {
			row = append(row, cells[i][col])
		}
		rows = append(rows, row)
	}
	return encode(rows)
}

func rawColumn(track *model.TrackConfig, criterionID string) string {
	if track == nil {
		return "Score_" + criterionID
	}
	if c, ok := track.Find(criterionID); ok && c.Name != "" {
		return c.Name
	}
	return criterionID
}

// rawCell leaves null values blank. Other non-scalar values keep their
// JSON text.
func rawCell(v model.ScoreValue) string {
	if v.IsNull() || (v.Valid() && !v.IsText() && math.IsNaN(v.Float())) {
		return ""
	}
	return v.String()
}

func encode(rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
