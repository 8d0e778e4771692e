package worker

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/okian/judgeboard/internal/adapters/repository"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/scoring"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Source is the read side of the score store.
type Source interface {
	FetchScoreRecords(ctx context.Context, eventID string) ([]model.ScoreRecord, error)
	FetchEventTracks(ctx context.Context, eventID string) ([]model.EventTrack, error)
}

// Versioner hands out increasing snapshot versions.
type Versioner interface {
	NextVersion() uint64
}

// Refresher runs one fetch-then-aggregate pass for an event.
type Refresher struct {
	source     Source
	versions   Versioner
	defaultMin float64
	defaultMax float64
	tracer     trace.Tracer
	now        func() time.Time
}

// NewRefresher creates a refresher. Criteria without bounds fall back to
// defaultMin and defaultMax.
func NewRefresher(source Source, versions Versioner, defaultMin, defaultMax float64, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		source:     source,
		versions:   versions,
		defaultMin: defaultMin,
		defaultMax: defaultMax,
		tracer:     otel.Tracer("github.com/okian/judgeboard/internal/adapters/mq/worker"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches records and tracks concurrently and aggregates them. The
// version is taken before fetching, so a pass that starts later always
// carries the higher version. Any fetch error aborts the pass.
func (r *Refresher) Refresh(ctx context.Context, eventID string) (*model.Snapshot, error) {
	ctx, span := r.tracer.Start(ctx, "refresh", trace.WithAttributes(attribute.String("event.id", eventID)))
	defer span.End()

	version := r.versions.NextVersion()
	start := time.Now()

	var (
		records []model.ScoreRecord
		tracks  []model.EventTrack
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if records, err = r.source.FetchScoreRecords(gctx, eventID); err != nil {
			return fmt.Errorf("%w: %w", ErrFetchRecords, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tracks, err = r.source.FetchEventTracks(gctx, eventID); err != nil {
			return fmt.Errorf("%w: %w", ErrFetchTracks, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	cfg := repository.BuildConfig(tracks, r.defaultMin, r.defaultMax)
	aggStart := time.Now()
	aggs, stats := scoring.AggregateWithStats(records, cfg)
	projects := 0
	for _, ps := range aggs {
		projects += len(ps)
	}
	metrics.RecordAggregationPass(float64(time.Since(aggStart).Microseconds())/1000, stats.Records, projects, stats.Skipped)
	metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)

	span.SetAttributes(
		attribute.Int("records", stats.Records),
		attribute.Int("tracks", len(aggs)),
		attribute.Int64("version", int64(version)), //nolint:gosec // versions stay far below MaxInt64
	)
	return &model.Snapshot{
		EventID:     eventID,
		Version:     version,
		Tracks:      aggs,
		Records:     records,
		Config:      cfg,
		EventTracks: tracks,
		ComputedAt:  r.now().UTC(),
	}, nil
}
