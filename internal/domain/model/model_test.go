package model_test

import (
	"encoding/json"
	"math"
	"testing"

	model "github.com/okian/judgeboard/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestScoreValue(t *testing.T) {
	convey.Convey("Given a score bag decoded from JSON", t, func() {
		var scores model.Scores
		err := json.Unmarshal([]byte(`{"tech": 8, "design": "7.5", "decision": "invest", "blank": null}`), &scores)
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then numbers stay numbers", func() {
			convey.So(scores["tech"].IsText(), convey.ShouldBeFalse)
			convey.So(scores["tech"].Float(), convey.ShouldEqual, 8)
		})

		convey.Convey("And numeric strings coerce to numbers", func() {
			convey.So(scores["design"].IsText(), convey.ShouldBeTrue)
			convey.So(scores["design"].Float(), convey.ShouldEqual, 7.5)
		})

		convey.Convey("And non-numeric strings coerce to NaN", func() {
			convey.So(math.IsNaN(scores["decision"].Float()), convey.ShouldBeTrue)
			convey.So(scores["decision"].String(), convey.ShouldEqual, "invest")
		})

		convey.Convey("And null becomes NaN", func() {
			convey.So(math.IsNaN(scores["blank"].Float()), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given values encoded back to JSON", t, func() {
		b, err := json.Marshal(model.Scores{"a": model.Number(3), "b": model.Text("pass")})

		convey.Convey("Then the original shapes are preserved", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"a":3,"b":"pass"}`)
		})
	})

	convey.Convey("Given stored values that are neither numbers nor strings", t, func() {
		var scores model.Scores
		err := json.Unmarshal([]byte(`{"a": [1, 2], "b": true, "c": {"x": 1}, "d": null}`), &scores)

		convey.Convey("Then decoding keeps every entry", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(scores, convey.ShouldHaveLength, 4)
		})

		convey.Convey("And none of them is a valid number", func() {
			for _, id := range []string{"a", "b", "c", "d"} {
				convey.So(scores[id].Valid(), convey.ShouldBeFalse)
				convey.So(math.IsNaN(scores[id].Float()), convey.ShouldBeTrue)
			}
		})

		convey.Convey("And they render as their JSON text", func() {
			convey.So(scores["a"].String(), convey.ShouldEqual, "[1,2]")
			convey.So(scores["b"].String(), convey.ShouldEqual, "true")
			convey.So(scores["d"].IsNull(), convey.ShouldBeTrue)
		})

		convey.Convey("And encoding writes them back unchanged", func() {
			b, err := json.Marshal(scores)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(b), convey.ShouldEqual, `{"a":[1,2],"b":true,"c":{"x":1},"d":null}`)
		})
	})

	convey.Convey("Given malformed JSON as a score value", t, func() {
		var v model.ScoreValue
		err := v.UnmarshalJSON([]byte(`{"x":`))

		convey.Convey("Then decoding fails", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})

	convey.Convey("Given strings typed into a numeric field", t, func() {
		convey.Convey("Then the leading number is read", func() {
			convey.So(model.Text("8 pts").Float(), convey.ShouldEqual, 8)
			convey.So(model.Text("  -2.5e1x").Float(), convey.ShouldEqual, -25)
			convey.So(model.Text(".5").Float(), convey.ShouldEqual, 0.5)
			convey.So(model.Text("7e").Float(), convey.ShouldEqual, 7)
			convey.So(math.IsInf(model.Text("Infinity").Float(), 1), convey.ShouldBeTrue)
		})

		convey.Convey("And strings without a leading number are NaN", func() {
			convey.So(math.IsNaN(model.Text("pts 8").Float()), convey.ShouldBeTrue)
			convey.So(math.IsNaN(model.Text(".").Float()), convey.ShouldBeTrue)
			convey.So(math.IsNaN(model.Text("").Float()), convey.ShouldBeTrue)
		})

		convey.Convey("And Exact accepts only whole numbers", func() {
			_, ok := model.Text("8 pts").Exact()
			convey.So(ok, convey.ShouldBeFalse)
			f, ok := model.Text(" 8.5 ").Exact()
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(f, convey.ShouldEqual, 8.5)
			_, ok = model.Null().Exact()
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestCriterion(t *testing.T) {
	convey.Convey("Given the criterion types", t, func() {
		convey.Convey("Then only choice types are categorical", func() {
			convey.So(model.CriterionChoice.IsCategorical(), convey.ShouldBeTrue)
			convey.So(model.CriterionMultipleChoice.IsCategorical(), convey.ShouldBeTrue)
			convey.So(model.CriterionNumeric.IsCategorical(), convey.ShouldBeFalse)
			convey.So(model.CriterionScale.IsCategorical(), convey.ShouldBeFalse)
			convey.So(model.CriterionLikert.IsCategorical(), convey.ShouldBeFalse)
			convey.So(model.CriterionType("").IsCategorical(), convey.ShouldBeFalse)
			convey.So(model.CriterionType("slider").IsCategorical(), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given a criterion without weight or bounds", t, func() {
		c := model.ScoringCriterion{ID: "tech"}

		convey.Convey("Then weight defaults to 1 and bounds to the supplied defaults", func() {
			convey.So(c.EffectiveWeight(), convey.ShouldEqual, 1)
			lo, hi := c.Bounds(model.DefaultMin, model.DefaultMax)
			convey.So(lo, convey.ShouldEqual, 1)
			convey.So(hi, convey.ShouldEqual, 10)
		})
	})

	convey.Convey("Given a track with mixed criteria", t, func() {
		w := 2.0
		track := model.TrackConfig{Criteria: []model.ScoringCriterion{
			{ID: "tech", Weight: &w},
			{ID: "decision", Type: model.CriterionMultipleChoice, Options: []string{"invest", "pass"}},
			{ID: "ux", Type: model.CriterionLikert},
		}}

		convey.Convey("Then criteria split by kind in configured order", func() {
			convey.So(len(track.Numeric()), convey.ShouldEqual, 2)
			convey.So(track.Numeric()[1].ID, convey.ShouldEqual, "ux")
			convey.So(len(track.Categorical()), convey.ShouldEqual, 1)
		})

		convey.Convey("And lookup finds by id", func() {
			c, ok := track.Find("tech")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(c.EffectiveWeight(), convey.ShouldEqual, 2)
			_, ok = track.Find("ghost")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
