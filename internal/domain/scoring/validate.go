package scoring

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/okian/judgeboard/internal/domain/model"
)

var validate = validator.New()

// ValidateSubmission checks a judge's score bag before it is stored. Every
// configured criterion must be scored, numeric values must fall inside the
// criterion's bounds and categorical values must be one of its options.
// The aggregator never calls this; stored data is folded leniently.
func ValidateSubmission(track *model.TrackConfig, scores model.Scores, defaultMin, defaultMax float64) error {
	var errs []error
	for id := range scores {
		if _, ok := track.Find(id); !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownCriterion, id))
		}
	}
	for i := range track.Criteria {
		c := &track.Criteria[i]
		v, ok := scores[c.ID]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingCriterion, c.ID))
			continue
		}
		if !v.Valid() {
			errs = append(errs, fmt.Errorf("%w: %s", model.ErrInvalidScoreValue, c.ID))
			continue
		}
		if c.Type.IsCategorical() {
			if len(c.Options) > 0 && !slices.Contains(c.Options, v.String()) {
				errs = append(errs, fmt.Errorf("%w: %s=%q", ErrInvalidOption, c.ID, v.String()))
			}
			continue
		}
		f, ok := v.Exact()
		if !ok || math.IsInf(f, 0) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNotNumeric, c.ID))
			continue
		}
		lo, hi := c.Bounds(defaultMin, defaultMax)
		if err := validate.Var(f, fmt.Sprintf("gte=%g,lte=%g", lo, hi)); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, c.ID, f, lo, hi))
		}
	}
	return errors.Join(errs...)
}

// DefaultScores returns the values a fresh scoring form starts with: the
// floored midpoint of each numeric criterion's range.
func DefaultScores(track *model.TrackConfig, defaultMin, defaultMax float64) model.Scores {
	out := make(model.Scores, len(track.Criteria))
	for i := range track.Criteria {
		c := &track.Criteria[i]
		if c.Type.IsCategorical() {
			continue
		}
		lo, hi := c.Bounds(defaultMin, defaultMax)
		out[c.ID] = model.Number(math.Floor((lo + hi) / 2))
	}
	return out
}
