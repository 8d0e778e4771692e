package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/judgeboard/internal/domain/model"
)

// MemoryStore keeps projects, tracks and scores in process. It backs tests
// and the memory driver.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]model.Project
	tracks   map[string]model.EventTrack // by track id
	scores   []model.ScoreRecord         // insertion order
	index    map[string]int              // record key -> position in scores

	onChange func(eventID string)
	now      func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		projects: make(map[string]model.Project),
		tracks:   make(map[string]model.EventTrack),
		index:    make(map[string]int),
		onChange: func(string) {},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutProject adds or replaces a project.
func (s *MemoryStore) PutProject(p model.Project) {
	s.mu.Lock()
	s.projects[p.ProjectID] = p
	s.mu.Unlock()
}

// PutEventTrack adds or replaces a track row.
func (s *MemoryStore) PutEventTrack(t model.EventTrack) {
	s.mu.Lock()
	s.tracks[t.TrackID] = t
	s.mu.Unlock()
}

// FetchScoreRecords returns the scores of eventID with display fields joined.
func (s *MemoryStore) FetchScoreRecords(ctx context.Context, eventID string) ([]model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.ScoreRecord, 0)
	for _, rec := range s.scores {
		p, ok := s.projects[rec.ProjectID]
		if !ok || p.EventID != eventID {
			continue
		}
		rec.EventID = p.EventID
		rec.ProjectName = p.ProjectName
		rec.LeadName = p.LeadName
		rec.LeadEmail = p.LeadEmail
		rec.TrackName = s.tracks[rec.TrackID].Name
		rec.Scores = copyScores(rec.Scores)
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}

// FetchEventTracks returns the track rows of eventID ordered by track id.
func (s *MemoryStore) FetchEventTracks(ctx context.Context, eventID string) ([]model.EventTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.EventTrack, 0)
	for _, t := range s.tracks {
		if t.EventID == eventID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrackID < out[j].TrackID })
	return out, nil
}

// UpsertScore stores rec, replacing any previous score of the same judge for
// the same project and track.
func (s *MemoryStore) UpsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.ScoreRecord{}, err
	}
	if err := validateRecord(&rec); err != nil {
		return model.ScoreRecord{}, err
	}

	s.mu.Lock()
	p, ok := s.projects[rec.ProjectID]
	if !ok {
		s.mu.Unlock()
		return model.ScoreRecord{}, fmt.Errorf("%w: %s", ErrUnknownProject, rec.ProjectID)
	}
	t, ok := s.tracks[rec.TrackID]
	if !ok || t.EventID != p.EventID {
		s.mu.Unlock()
		return model.ScoreRecord{}, fmt.Errorf("%w: %s", ErrUnknownTrack, rec.TrackID)
	}

	stored := model.ScoreRecord{
		ProjectID: rec.ProjectID,
		TrackID:   rec.TrackID,
		JudgeID:   rec.JudgeID,
		EventID:   p.EventID,
		Scores:    copyScores(rec.Scores),
		Comments:  rec.Comments,
		UpdatedAt: s.now().UTC(),
	}
	if i, exists := s.index[rec.Key()]; exists {
		stored.ID = s.scores[i].ID
		s.scores[i] = stored
	} else {
		stored.ID = uuid.NewString()
		s.index[rec.Key()] = len(s.scores)
		s.scores = append(s.scores, stored)
	}
	s.mu.Unlock()

	stored.ProjectName = p.ProjectName
	stored.LeadName = p.LeadName
	stored.LeadEmail = p.LeadEmail
	stored.TrackName = t.Name
	s.onChange(p.EventID)
	return stored, nil
}

// EventIDs lists every event that has a project, sorted.
func (s *MemoryStore) EventIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.projects {
		seen[p.EventID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// Seed loads a fixture. Projects and tracks are written first so the scores
// can reference them.
func (s *MemoryStore) Seed(ctx context.Context, f *Fixture) error {
	for _, ev := range f.Events {
		for _, p := range ev.Projects {
			p.EventID = ev.EventID
			s.PutProject(p)
		}
		for _, t := range ev.Tracks {
			t.EventID = ev.EventID
			s.PutEventTrack(t)
		}
	}
	for _, ev := range f.Events {
		for _, sc := range ev.Scores {
			if _, err := s.UpsertScore(ctx, sc.Record(ev.EventID)); err != nil {
				return fmt.Errorf("seed score %s/%s/%s: %w", sc.ProjectID, sc.TrackID, sc.JudgeID, err)
			}
		}
	}
	return nil
}

func copyScores(in model.Scores) model.Scores {
	if in == nil {
		return nil
	}
	out := make(model.Scores, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
