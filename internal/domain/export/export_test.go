package export_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/scoring"
)

func weight(w float64) *float64 { return &w }

func fixtureConfig() model.ScoringConfiguration {
	return model.ScoringConfiguration{Tracks: map[string]model.TrackConfig{
		"t1": {Name: "Main", Criteria: []model.ScoringCriterion{
			{ID: "tech", Name: "Tech", Type: model.CriterionNumeric, Weight: weight(2)},
			{ID: "design", Name: "Design", Type: model.CriterionScale},
			{ID: "decision", Name: "Decision", Type: model.CriterionMultipleChoice, Options: []string{"invest", "pass"}},
		}},
	}}
}

func fixtureRecords() []model.ScoreRecord {
	rec := func(project, judge string, scores model.Scores) model.ScoreRecord {
		return model.ScoreRecord{
			ProjectID:   project,
			TrackID:     "t1",
			TrackName:   "Main",
			JudgeID:     judge,
			EventID:     "e1",
			Scores:      scores,
			ProjectName: "Project " + project,
			LeadName:    "Lead " + project,
			LeadEmail:   project + "@example.com",
		}
	}
	r1 := rec("1", "j1", model.Scores{"tech": model.Number(8), "decision": model.Text("invest")})
	r1.Comments = "solid, but slow"
	return []model.ScoreRecord{
		r1,
		rec("1", "j2", model.Scores{"tech": model.Number(6), "design": model.Number(5), "decision": model.Text("pass")}),
		rec("2", "j1", model.Scores{"tech": model.Number(9)}),
	}
}

func fixtureSnapshot() *model.Snapshot {
	cfg := fixtureConfig()
	records := fixtureRecords()
	return &model.Snapshot{
		EventID:     "e1",
		Tracks:      scoring.Aggregate(records, cfg),
		Records:     records,
		Config:      cfg,
		EventTracks: []model.EventTrack{{TrackID: "t1", EventID: "e1", Name: "Main Track"}},
	}
}

func TestAggregateFiles(t *testing.T) {
	Convey("Given an aggregated event", t, func() {
		snap := fixtureSnapshot()

		Convey("When rendering the aggregate export", func() {
			files, err := export.AggregateFiles(snap.Tracks, snap.Config, snap.EventTracks, "e1")

			Convey("Then one ranked file is produced for the track", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 1)
				So(files[0].Name, ShouldEqual, "scores-main-track-e1.csv")
				So(files[0].TrackID, ShouldEqual, "t1")
				So(files[0].TrackName, ShouldEqual, "Main Track")

				want := "Rank,Project,Lead,Total Average,Tech (×2),Design,Decision,Judges\r\n" +
					"1,Project 2,Lead 2,18.00,9.00,—,\"invest: 0, pass: 0\",1\r\n" +
					"2,Project 1,Lead 1,16.50,7.00,2.50,\"invest: 1, pass: 1\",2\r\n"
				if diff := cmp.Diff(want, string(files[0].Data)); diff != "" {
					t.Errorf("aggregate csv mismatch (-want +got):\n%s", diff)
				}
			})
		})

		Convey("When a numeric criterion carries zero weight", func() {
			cfg := model.ScoringConfiguration{Tracks: map[string]model.TrackConfig{
				"t1": {Name: "Main", Criteria: []model.ScoringCriterion{
					{ID: "tech", Name: "Tech", Type: model.CriterionNumeric, Weight: weight(0)},
				}},
			}}
			records := []model.ScoreRecord{{ProjectID: "1", TrackID: "t1", JudgeID: "j1", EventID: "e1",
				Scores: model.Scores{"tech": model.Number(8)}, ProjectName: "Project 1", LeadName: "Lead 1"}}
			files, err := export.AggregateFiles(scoring.Aggregate(records, cfg), cfg, nil, "e1")

			Convey("Then the header shows the zero weight next to its column", func() {
				So(err, ShouldBeNil)
				want := "Rank,Project,Lead,Total Average,Tech (×0),Judges\r\n" +
					"1,Project 1,Lead 1,0.00,8.00,1\r\n"
				if diff := cmp.Diff(want, string(files[0].Data)); diff != "" {
					t.Errorf("aggregate csv mismatch (-want +got):\n%s", diff)
				}
			})
		})

		Convey("When no event track row names the track", func() {
			files, err := export.AggregateFiles(snap.Tracks, snap.Config, nil, "e1")

			Convey("Then the track id is used in the file name", func() {
				So(err, ShouldBeNil)
				So(files[0].Name, ShouldEqual, "scores-t1-e1.csv")
			})
		})

		Convey("When a track id embeds a configured track name", func() {
			cfg := model.ScoringConfiguration{Tracks: map[string]model.TrackConfig{
				"legacy": {Name: "Main", Criteria: fixtureConfig().Tracks["t1"].Criteria},
			}}
			aggs := model.TrackAggregates{"Main-2024": snap.Tracks["t1"]}
			files, err := export.AggregateFiles(aggs, cfg, nil, "e1")

			Convey("Then the configured name is used", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 1)
				So(files[0].TrackName, ShouldEqual, "Main")
			})
		})

		Convey("When the only track has no configuration", func() {
			aggs := model.TrackAggregates{"ghost": snap.Tracks["t1"]}
			_, err := export.AggregateFiles(aggs, snap.Config, nil, "e1")

			Convey("Then nothing is exported", func() {
				So(errors.Is(err, export.ErrNothingToExport), ShouldBeTrue)
			})
		})

		Convey("When the aggregate is empty", func() {
			files, err := export.AggregateFiles(model.TrackAggregates{}, snap.Config, nil, "e1")

			Convey("Then no file is produced", func() {
				So(files, ShouldBeNil)
				So(errors.Is(err, export.ErrNothingToExport), ShouldBeTrue)
			})
		})
	})
}

func TestRawFiles(t *testing.T) {
	Convey("Given raw judge records", t, func() {
		records := fixtureRecords()
		records = append(records, model.ScoreRecord{
			ProjectID: "3", TrackID: "t9", TrackName: "Side", JudgeID: "j1", EventID: "e1",
			ProjectName: "Project 3",
			Scores:      model.Scores{"fun": model.Number(4)},
		})

		Convey("When rendering the raw export", func() {
			files, err := export.RawFiles(records, fixtureConfig(), "e1")

			Convey("Then one file per track name is produced in encounter order", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(files[0].Name, ShouldEqual, "raw-scores-main-e1.csv")
				So(files[1].Name, ShouldEqual, "raw-scores-side-e1.csv")
			})

			Convey("Then criterion columns use configured names", func() {
				want := "Project Name,Track,Comments,Lead Email,Decision,Tech,Design\r\n" +
					"Project 1,Main,\"solid, but slow\",1@example.com,invest,8,\r\n" +
					"Project 1,Main,,1@example.com,pass,6,5\r\n" +
					"Project 2,Main,,2@example.com,,9,\r\n"
				if diff := cmp.Diff(want, string(files[0].Data)); diff != "" {
					t.Errorf("raw csv mismatch (-want +got):\n%s", diff)
				}
			})

			Convey("Then unconfigured tracks fall back to Score_ columns", func() {
				want := "Project Name,Track,Comments,Lead Email,Score_fun\r\n" +
					"Project 3,Side,,,4\r\n"
				So(string(files[1].Data), ShouldEqual, want)
			})
		})

		Convey("When stored values are null or not scalar", func() {
			odd := []model.ScoreRecord{{ProjectID: "4", TrackID: "t9", TrackName: "Side", JudgeID: "j1", EventID: "e1",
				ProjectName: "Project 4", Scores: model.Scores{"fun": model.Null()}}}
			var flag model.ScoreValue
			So(flag.UnmarshalJSON([]byte(`true`)), ShouldBeNil)
			odd = append(odd, model.ScoreRecord{ProjectID: "5", TrackID: "t9", TrackName: "Side", JudgeID: "j1", EventID: "e1",
				ProjectName: "Project 5", Scores: model.Scores{"fun": flag}})
			files, err := export.RawFiles(odd, fixtureConfig(), "e1")

			Convey("Then nulls are blank and other values keep their JSON text", func() {
				So(err, ShouldBeNil)
				want := "Project Name,Track,Comments,Lead Email,Score_fun\r\n" +
					"Project 4,Side,,,\r\n" +
					"Project 5,Side,,,true\r\n"
				So(string(files[0].Data), ShouldEqual, want)
			})
		})

		Convey("When there are no records", func() {
			_, err := export.RawFiles(nil, fixtureConfig(), "e1")

			Convey("Then nothing is exported", func() {
				So(errors.Is(err, export.ErrNothingToExport), ShouldBeTrue)
			})
		})
	})
}

func TestFileName(t *testing.T) {
	Convey("Given track names that need sanitizing", t, func() {
		So(export.FileName(export.KindAggregate, "AI / ML Track!", "ev-9"), ShouldEqual, "scores-ai-ml-track-ev-9.csv")
		So(export.FileName(export.KindRaw, "Main", "e1"), ShouldEqual, "raw-scores-main-e1.csv")
		So(export.FileName(export.KindRaw, "!!!", "e1"), ShouldEqual, "raw-scores-track-e1.csv")
	})
}

func TestParseKind(t *testing.T) {
	Convey("Given export kind strings", t, func() {
		k, err := export.ParseKind("raw")
		So(err, ShouldBeNil)
		So(k, ShouldEqual, export.KindRaw)

		_, err = export.ParseKind("pdf")
		So(errors.Is(err, export.ErrUnknownKind), ShouldBeTrue)
	})
}

type failingSink struct{ calls int }

func (f *failingSink) Save(context.Context, string, string, []byte) error {
	f.calls++
	return errors.New("disk full")
}

func TestExporter(t *testing.T) {
	Convey("Given an exporter over a memory sink", t, func() {
		sink := export.NewMemorySink()
		exp, err := export.NewExporter(sink)
		So(err, ShouldBeNil)
		ctx := context.Background()

		Convey("When exporting aggregates and raw records", func() {
			aggFiles, aggErr := exp.ExportAggregate(ctx, fixtureSnapshot())
			rawFiles, rawErr := exp.ExportRaw(ctx, fixtureSnapshot())

			Convey("Then every file reaches the sink", func() {
				So(aggErr, ShouldBeNil)
				So(rawErr, ShouldBeNil)
				So(aggFiles, ShouldHaveLength, 1)
				So(rawFiles, ShouldHaveLength, 1)
				So(sink.Names(), ShouldResemble, []string{"raw-scores-main-e1.csv", "scores-main-track-e1.csv"})
				data, ok := sink.Get("scores-main-track-e1.csv")
				So(ok, ShouldBeTrue)
				So(string(data), ShouldEqual, string(aggFiles[0].Data))
			})
		})

		Convey("When the snapshot has no data", func() {
			_, err := exp.ExportAggregate(ctx, &model.Snapshot{EventID: "e1", Tracks: model.TrackAggregates{}})

			Convey("Then the empty notice is returned and nothing is saved", func() {
				So(errors.Is(err, export.ErrNothingToExport), ShouldBeTrue)
				So(sink.Names(), ShouldBeEmpty)
			})
		})

		Convey("When the sink fails", func() {
			bad := &failingSink{}
			exp, err := export.NewExporter(bad)
			So(err, ShouldBeNil)
			files, err := exp.ExportRaw(ctx, fixtureSnapshot())

			Convey("Then the failure is swallowed", func() {
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 1)
				So(bad.calls, ShouldEqual, 1)
			})
		})

		Convey("When no sink is given", func() {
			_, err := export.NewExporter(nil)
			So(errors.Is(err, export.ErrSinkRequired), ShouldBeTrue)
		})
	})
}

func TestDirSink(t *testing.T) {
	Convey("Given a directory sink", t, func() {
		dir := filepath.Join(t.TempDir(), "exports")
		sink := export.NewDirSink(dir)

		Convey("When saving a file twice", func() {
			So(sink.Save(context.Background(), "a.csv", export.ContentType, []byte("one")), ShouldBeNil)
			So(sink.Save(context.Background(), "a.csv", export.ContentType, []byte("two")), ShouldBeNil)

			Convey("Then the latest content is on disk", func() {
				b, err := os.ReadFile(filepath.Join(dir, "a.csv"))
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, "two")
				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When the name escapes the directory", func() {
			err := sink.Save(context.Background(), "../x.csv", export.ContentType, nil)
			So(errors.Is(err, export.ErrInvalidFileName), ShouldBeTrue)
		})
	})
}

func TestS3SinkConfig(t *testing.T) {
	Convey("Given an S3 sink without a bucket", t, func() {
		_, err := export.NewS3Sink(context.Background(), export.S3Config{})
		So(errors.Is(err, export.ErrBucketRequired), ShouldBeTrue)
	})

	Convey("Given an S3 sink with static credentials", t, func() {
		sink, err := export.NewS3Sink(context.Background(), export.S3Config{
			Bucket:          "exports",
			Prefix:          "judging",
			Endpoint:        "http://127.0.0.1:9000",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			UsePathStyle:    true,
		})
		So(err, ShouldBeNil)
		So(sink.Key("a.csv"), ShouldEqual, "judging/a.csv")
	})
}
