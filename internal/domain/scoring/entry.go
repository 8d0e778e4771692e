package scoring

import (
	"math"

	"github.com/okian/judgeboard/internal/domain/model"
)

// Entry is one classified (criterion, value) pair of a score record. It is
// either a NumericEntry or a ChoiceEntry.
type Entry interface {
	criterion() string
}

// NumericEntry is a value for a numeric-like criterion, already coerced.
type NumericEntry struct {
	CriterionID string
	Value       float64
	Weight      float64
}

// Weighted returns the value's contribution to the record total.
func (e NumericEntry) Weighted() float64 { return e.Value * e.Weight }

func (e NumericEntry) criterion() string { return e.CriterionID }

// ChoiceEntry is a selection for a categorical criterion.
type ChoiceEntry struct {
	CriterionID string
	Value       string
}

func (e ChoiceEntry) criterion() string { return e.CriterionID }

// Skip reasons reported in Stats.
const (
	SkipUnknownCriterion = "unknown_criterion"
	SkipNotNumeric       = "not_numeric"
	SkipNoTrackConfig    = "no_track_config"
	SkipNullValue        = "null_value"
)

// Classify resolves one score-bag entry against a track's criteria. The
// criterion's declared type alone decides the entry kind. ok is false when
// the entry must be dropped; reason then says why.
func Classify(track *model.TrackConfig, criterionID string, value model.ScoreValue) (e Entry, reason string, ok bool) {
	if track == nil {
		return nil, SkipNoTrackConfig, false
	}
	c, found := track.Find(criterionID)
	if !found {
		return nil, SkipUnknownCriterion, false
	}
	if value.IsNull() {
		return nil, SkipNullValue, false
	}
	if c.Type.IsCategorical() {
		return ChoiceEntry{CriterionID: criterionID, Value: value.String()}, "", true
	}
	f := value.Float()
	if math.IsNaN(f) {
		return nil, SkipNotNumeric, false
	}
	return NumericEntry{CriterionID: criterionID, Value: f, Weight: c.EffectiveWeight()}, "", true
}
