package seeding

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/model"
)

// Generate returns one submission per judge, project and track of ev. Numeric
// criteria get whole numbers inside their bounds; categorical ones a random
// option.
func Generate(ev repository.FixtureEvent, judges int, rng *rand.Rand, defaultMin, defaultMax float64) []service.Submission {
	out := make([]service.Submission, 0, judges*len(ev.Projects)*len(ev.Tracks))
	for _, track := range ev.Tracks {
		for _, p := range ev.Projects {
			for j := 1; j <= judges; j++ {
				out = append(out, service.Submission{
					SubmissionID: uuid.NewString(),
					EventID:      ev.EventID,
					ProjectID:    p.ProjectID,
					TrackID:      track.TrackID,
					JudgeID:      judgeID(j),
					Scores:       randomScores(&track.ScoringCriteria, rng, defaultMin, defaultMax),
				})
			}
		}
	}
	return out
}

func judgeID(n int) string {
	return fmt.Sprintf("seed-judge-%03d", n)
}

func randomScores(track *model.TrackConfig, rng *rand.Rand, defaultMin, defaultMax float64) model.Scores {
	scores := make(model.Scores, len(track.Criteria))
	for i := range track.Criteria {
		c := &track.Criteria[i]
		if c.Type.IsCategorical() {
			if len(c.Options) == 0 {
				scores[c.ID] = model.Text("n/a")
				continue
			}
			scores[c.ID] = model.Text(c.Options[rng.IntN(len(c.Options))])
			continue
		}
		lo, hi := c.Bounds(defaultMin, defaultMax)
		span := int(hi - lo)
		if span < 0 {
			span = 0
		}
		scores[c.ID] = model.Number(lo + float64(rng.IntN(span+1)))
	}
	return scores
}
