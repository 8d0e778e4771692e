package model

// CriterionType is the declared kind of a scoring criterion.
type CriterionType string

// Criterion types understood by the judging forms.
const (
	CriterionNumeric        CriterionType = "numeric"
	CriterionScale          CriterionType = "scale"
	CriterionLikert         CriterionType = "likert"
	CriterionChoice         CriterionType = "choice"
	CriterionMultipleChoice CriterionType = "multiplechoice"
)

// IsCategorical reports whether values of this type are tallied rather than
// averaged. Unknown and empty types are numeric-like.
func (t CriterionType) IsCategorical() bool {
	return t == CriterionChoice || t == CriterionMultipleChoice
}

// ScoringCriterion is one evaluable dimension within a track.
// Weight, Min and Max only apply to numeric-like criteria; Options only to
// categorical ones.
type ScoringCriterion struct {
	ID          string        `json:"id" yaml:"id" validate:"required"`
	Name        string        `json:"name" yaml:"name"`
	Description string        `json:"description,omitempty" yaml:"description"`
	Type        CriterionType `json:"type,omitempty" yaml:"type"`
	Weight      *float64      `json:"weight,omitempty" yaml:"weight" validate:"omitempty,gte=0"`
	Min         *float64      `json:"min,omitempty" yaml:"min"`
	Max         *float64      `json:"max,omitempty" yaml:"max"`
	Options     []string      `json:"options,omitempty" yaml:"options"`
	LikertScale int           `json:"likertScale,omitempty" yaml:"likertScale" validate:"gte=0"`
}

// EffectiveWeight returns the configured weight or 1.
func (c *ScoringCriterion) EffectiveWeight() float64 {
	if c.Weight == nil {
		return 1
	}
	return *c.Weight
}

// Bounds returns the inclusive numeric range, using the given defaults for
// unset ends.
func (c *ScoringCriterion) Bounds(defaultMin, defaultMax float64) (lo, hi float64) {
	lo, hi = defaultMin, defaultMax
	if c.Min != nil {
		lo = *c.Min
	}
	if c.Max != nil {
		hi = *c.Max
	}
	return lo, hi
}

// TrackConfig is the criteria list of one track.
type TrackConfig struct {
	Name     string             `json:"name" yaml:"name"`
	Criteria []ScoringCriterion `json:"criteria" yaml:"criteria" validate:"dive"`
}

// Find returns the criterion with the given id.
func (t *TrackConfig) Find(id string) (*ScoringCriterion, bool) {
	for i := range t.Criteria {
		if t.Criteria[i].ID == id {
			return &t.Criteria[i], true
		}
	}
	return nil, false
}

// Numeric returns the numeric-like criteria in configured order.
func (t *TrackConfig) Numeric() []ScoringCriterion {
	out := make([]ScoringCriterion, 0, len(t.Criteria))
	for _, c := range t.Criteria {
		if !c.Type.IsCategorical() {
			out = append(out, c)
		}
	}
	return out
}

// Categorical returns the categorical criteria in configured order.
func (t *TrackConfig) Categorical() []ScoringCriterion {
	out := make([]ScoringCriterion, 0, len(t.Criteria))
	for _, c := range t.Criteria {
		if c.Type.IsCategorical() {
			out = append(out, c)
		}
	}
	return out
}

// Default bounds used by the judging form when a criterion omits them.
const (
	DefaultMin = 1
	DefaultMax = 10
)

// ScoringConfiguration is the per-event map from track id to criteria.
type ScoringConfiguration struct {
	Tracks     map[string]TrackConfig `json:"tracks" yaml:"tracks"`
	DefaultMin float64                `json:"defaultMin,omitempty" yaml:"defaultMin"`
	DefaultMax float64                `json:"defaultMax,omitempty" yaml:"defaultMax"`
}

// EventTrack is a persisted track row. Its ScoringCriteria column carries
// the track's TrackConfig.
type EventTrack struct {
	TrackID         string      `json:"track_id" yaml:"track_id"`
	EventID         string      `json:"event_id" yaml:"event_id"`
	Name            string      `json:"name" yaml:"name"`
	Description     string      `json:"description,omitempty" yaml:"description"`
	ScoringCriteria TrackConfig `json:"scoring_criteria" yaml:"scoring_criteria"`
}
