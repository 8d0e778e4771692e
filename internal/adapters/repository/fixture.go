package repository

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Fixture is a YAML document describing events to preload.
//
//	events:
//	  - event_id: hack-2025
//	    tracks:
//	      - track_id: t1
//	        name: Main
//	        scoring_criteria:
//	          criteria:
//	            - {id: tech, name: Technical, type: numeric, weight: 2}
//	    projects:
//	      - {project_id: p1, project_name: Rocket, lead_name: Ada, lead_email: ada@example.com}
//	    scores:
//	      - {project_id: p1, track_id: t1, judge_id: j1, scores: {tech: 8}}
type Fixture struct {
	Events []FixtureEvent `yaml:"events" validate:"dive"`
}

// FixtureEvent groups the rows of one event.
type FixtureEvent struct {
	EventID  string             `yaml:"event_id" validate:"required"`
	Tracks   []model.EventTrack `yaml:"tracks" validate:"dive"`
	Projects []model.Project    `yaml:"projects" validate:"dive"`
	Scores   []FixtureScore     `yaml:"scores" validate:"dive"`
}

// FixtureScore is one judge submission. Score values may be YAML numbers or
// strings.
type FixtureScore struct {
	ProjectID string         `yaml:"project_id" validate:"required"`
	TrackID   string         `yaml:"track_id" validate:"required"`
	JudgeID   string         `yaml:"judge_id" validate:"required"`
	Comments  string         `yaml:"comments"`
	Scores    map[string]any `yaml:"scores"`
}

// Record converts the fixture row to a score record of eventID.
func (f FixtureScore) Record(eventID string) model.ScoreRecord {
	scores := make(model.Scores, len(f.Scores))
	for k, v := range f.Scores {
		switch x := v.(type) {
		case int:
			scores[k] = model.Number(float64(x))
		case float64:
			scores[k] = model.Number(x)
		case string:
			scores[k] = model.Text(x)
		case nil:
			scores[k] = model.Null()
		default:
			scores[k] = otherValue(x)
		}
	}
	return model.ScoreRecord{
		ProjectID: f.ProjectID,
		TrackID:   f.TrackID,
		JudgeID:   f.JudgeID,
		EventID:   eventID,
		Scores:    scores,
		Comments:  f.Comments,
	}
}

var fixtureValidate = validator.New()

// ParseFixture decodes and validates a YAML fixture.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := fixtureValidate.Struct(&f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	return &f, nil
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// otherValue keeps a YAML boolean, list or map the way the jsonb column
// would hold it.
func otherValue(x any) model.ScoreValue {
	var v model.ScoreValue
	b, err := json.Marshal(x)
	if err != nil || v.UnmarshalJSON(b) != nil {
		return model.Text(fmt.Sprint(x))
	}
	return v
}
