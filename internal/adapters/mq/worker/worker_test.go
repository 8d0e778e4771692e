package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/judgeboard/internal/adapters/mq/queue"
	"github.com/okian/judgeboard/internal/adapters/mq/worker"
	"github.com/okian/judgeboard/internal/adapters/repository"
	"github.com/okian/judgeboard/internal/domain/board"
	"github.com/okian/judgeboard/internal/domain/model"
)

func weight(w float64) *float64 { return &w }

func seededStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	s := repository.NewMemoryStore()
	s.PutProject(model.Project{ProjectID: "p1", EventID: "e1", ProjectName: "Rocket", LeadName: "Ada"})
	s.PutEventTrack(model.EventTrack{TrackID: "t1", EventID: "e1", Name: "Main", ScoringCriteria: model.TrackConfig{
		Criteria: []model.ScoringCriterion{{ID: "tech", Name: "Tech", Type: model.CriterionNumeric, Weight: weight(2)}},
	}})
	ctx := context.Background()
	for judge, v := range map[string]float64{"j1": 8, "j2": 6} {
		if _, err := s.UpsertScore(ctx, model.ScoreRecord{ProjectID: "p1", TrackID: "t1", JudgeID: judge, Scores: model.Scores{"tech": model.Number(v)}}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return s
}

type boardPublisher struct {
	b         *board.Board
	mu        sync.Mutex
	published int
}

func (p *boardPublisher) Publish(snap *model.Snapshot) bool {
	ok := p.b.Swap(snap)
	p.mu.Lock()
	p.published++
	p.mu.Unlock()
	return ok
}

func (p *boardPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published
}

type failingSource struct {
	recordsErr error
	tracksErr  error
}

func (f failingSource) FetchScoreRecords(context.Context, string) ([]model.ScoreRecord, error) {
	return nil, f.recordsErr
}

func (f failingSource) FetchEventTracks(context.Context, string) ([]model.EventTrack, error) {
	return nil, f.tracksErr
}

func TestRefresher(t *testing.T) {
	convey.Convey("Given a refresher over a seeded store", t, func() {
		b := board.New()
		fixed := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		r := worker.NewRefresher(seededStore(t), b, model.DefaultMin, model.DefaultMax,
			worker.WithClock(func() time.Time { return fixed }))

		convey.Convey("When refreshing an event", func() {
			snap, err := r.Refresh(context.Background(), "e1")

			convey.Convey("Then the snapshot carries the aggregate and its inputs", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.EventID, convey.ShouldEqual, "e1")
				convey.So(snap.Version, convey.ShouldEqual, uint64(1))
				convey.So(snap.ComputedAt, convey.ShouldEqual, fixed)
				convey.So(snap.Records, convey.ShouldHaveLength, 2)
				convey.So(snap.Config.Tracks, convey.ShouldContainKey, "t1")
				rows := snap.Tracks["t1"]
				convey.So(rows, convey.ShouldHaveLength, 1)
				convey.So(rows[0].AverageScore, convey.ShouldEqual, 14)
				convey.So(rows[0].CriterionScores["tech"].Average, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When refreshing an event without scores", func() {
			snap, err := r.Refresh(context.Background(), "empty")

			convey.Convey("Then an empty aggregate is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(snap.Tracks, convey.ShouldBeEmpty)
				convey.So(snap.Tracks, convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a source that fails", t, func() {
		b := board.New()

		convey.Convey("When score records cannot be fetched", func() {
			r := worker.NewRefresher(failingSource{recordsErr: errors.New("timeout")}, b, 1, 10)
			_, err := r.Refresh(context.Background(), "e1")
			convey.So(errors.Is(err, worker.ErrFetchRecords), convey.ShouldBeTrue)
		})

		convey.Convey("When tracks cannot be fetched", func() {
			r := worker.NewRefresher(failingSource{tracksErr: errors.New("denied")}, b, 1, 10)
			_, err := r.Refresh(context.Background(), "e1")
			convey.So(errors.Is(err, worker.ErrFetchTracks), convey.ShouldBeTrue)
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a pool of refresh workers", t, func() {
		b := board.New()
		pub := &boardPublisher{b: b}
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))
		r := worker.NewRefresher(seededStore(t), b, model.DefaultMin, model.DefaultMax)
		pool := worker.NewPool(3, q, r, pub)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When invalidations are queued", func() {
			for i := 0; i < 5; i++ {
				q.Enqueue(ctx, model.Invalidation{EventID: "e1", Reason: "test", At: time.Now()})
			}
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then each one produces a pass and the newest snapshot wins", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 3)
				convey.So(pub.count(), convey.ShouldEqual, 5)
				snap, ok := b.Get("e1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(snap.Version, convey.ShouldEqual, uint64(5))
			})
		})
	})

	convey.Convey("Given a worker whose refresh fails", t, func() {
		b := board.New()
		pub := &boardPublisher{b: b}
		b.Swap(&model.Snapshot{EventID: "e1", Version: 0})

		q := queue.NewInMemoryQueue()
		r := worker.NewRefresher(failingSource{recordsErr: errors.New("down")}, b, 1, 10)
		w := worker.NewInMemoryWorker(q, r, pub, worker.WithName("failing"))
		ctx := context.Background()
		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		q.Enqueue(ctx, model.Invalidation{EventID: "e1", Reason: "test", At: time.Now()})
		q.Close()
		<-done

		convey.Convey("Then nothing is published and the old snapshot stays", func() {
			convey.So(pub.count(), convey.ShouldEqual, 0)
			snap, ok := b.Get("e1")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(snap.Version, convey.ShouldEqual, uint64(0))
		})
	})

	convey.Convey("Given a worker that is shut down", t, func() {
		q := queue.NewInMemoryQueue()
		r := worker.NewRefresher(failingSource{}, board.New(), 1, 10)
		w := worker.NewInMemoryWorker(q, r, &boardPublisher{b: board.New()})
		go w.Run(context.Background())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
	})
}
