// Package service wires the score store, the refresh pipeline, the
// leaderboard board and the exporter behind the operations the HTTP API
// needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/judgeboard/internal/adapters/mq/feed"
	"github.com/okian/judgeboard/internal/adapters/mq/queue"
	"github.com/okian/judgeboard/internal/adapters/mq/worker"
	"github.com/okian/judgeboard/internal/adapters/repository"
	"github.com/okian/judgeboard/internal/domain/board"
	"github.com/okian/judgeboard/internal/domain/dedupe"
	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/scoring"
	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Invalidation reasons raised by the service itself.
const (
	ReasonManual = "manual"
	ReasonSubmit = "submit"
)

const stopTimeout = 10 * time.Second

// Submission is one judge's score form for a project in a track.
type Submission struct {
	SubmissionID string       `json:"submission_id"`
	EventID      string       `json:"event_id"`
	ProjectID    string       `json:"project_id"`
	TrackID      string       `json:"track_id"`
	JudgeID      string       `json:"judge_id"`
	Scores       model.Scores `json:"scores"`
	Comments     string       `json:"comments"`
}

// SubmitResult reports what happened to a submission.
type SubmitResult struct {
	Record    model.ScoreRecord `json:"record"`
	Duplicate bool              `json:"duplicate"`
}

// Service implements the API dependencies for the judging leaderboard.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	deduper   dedupe.Deduper
	queue     *queue.InMemoryQueue
	board     *board.Board
	broker    *feed.Broker
	refresher *worker.Refresher
	pool      *worker.Pool
	exporter  *export.Exporter
	sink      export.Sink

	workerCount int
	queueSize   int
	dedupeSize  int
	defaultMin  float64
	defaultMax  float64

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service over store.
func New(store repository.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		dedupeSize:  50000,
		defaultMin:  model.DefaultMin,
		defaultMax:  model.DefaultMax,
		sink:        export.NopSink{},
		board:       board.New(),
		broker:      feed.NewBroker(),
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the refresh pipeline and starts the workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	exp, err := export.NewExporter(s.sink, export.WithLogger(s.logger.Named("export")))
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}
	s.exporter = exp
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.refresher = worker.NewRefresher(s.store, s.board, s.defaultMin, s.defaultMax)
	s.pool = worker.NewPool(s.workerCount, s.queue, s.refresher, s)

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "judgeboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize))
	return nil
}

// Stop drains the queue and stops the workers.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
	}
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "judgeboard service stopped")
}

func (s *Service) running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// SubmitScore validates and stores a judge submission. A replayed
// submission id is acknowledged as a duplicate without touching the store.
// The leaderboard is refreshed by the store's change feed.
func (s *Service) SubmitScore(ctx context.Context, sub Submission) (SubmitResult, error) {
	if !s.running() {
		return SubmitResult{}, ErrNotStarted
	}
	if sub.EventID == "" {
		metrics.RecordSubmission("rejected")
		return SubmitResult{}, ErrMissingEventID
	}

	if sub.SubmissionID != "" && s.deduper.SeenAndRecord(ctx, sub.SubmissionID) {
		metrics.RecordSubmission("duplicate")
		s.logger.Debug(ctx, "duplicate submission", logger.String("submission_id", sub.SubmissionID))
		return SubmitResult{Duplicate: true}, nil
	}

	rec, err := s.submit(ctx, sub)
	if err != nil {
		if sub.SubmissionID != "" {
			s.deduper.Unrecord(ctx, sub.SubmissionID)
		}
		metrics.RecordSubmission("rejected")
		return SubmitResult{}, err
	}
	metrics.RecordSubmission("accepted")
	return SubmitResult{Record: rec}, nil
}

func (s *Service) submit(ctx context.Context, sub Submission) (model.ScoreRecord, error) {
	cfg, _, err := repository.FetchConfig(ctx, s.store, sub.EventID, s.defaultMin, s.defaultMax)
	if err != nil {
		return model.ScoreRecord{}, err
	}
	track, ok := cfg.Tracks[sub.TrackID]
	if !ok {
		return model.ScoreRecord{}, fmt.Errorf("%w: %s", ErrUnknownTrack, sub.TrackID)
	}
	if err := scoring.ValidateSubmission(&track, sub.Scores, s.defaultMin, s.defaultMax); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: %w", ErrInvalidSubmission, err)
	}
	return s.store.UpsertScore(ctx, model.ScoreRecord{
		ProjectID: sub.ProjectID,
		TrackID:   sub.TrackID,
		JudgeID:   sub.JudgeID,
		EventID:   sub.EventID,
		Scores:    sub.Scores,
		Comments:  sub.Comments,
	})
}

// Invalidate queues a refresh of eventID. It never blocks and reports
// whether the signal was accepted.
func (s *Service) Invalidate(ctx context.Context, eventID, reason string) bool {
	if eventID == "" || !s.running() {
		return false
	}
	metrics.RecordInvalidation(reason)
	return s.queue.Enqueue(ctx, model.Invalidation{EventID: eventID, Reason: reason, At: time.Now()})
}

// Publish swaps in snap and wakes the event's watchers. It implements the
// workers' publisher.
func (s *Service) Publish(snap *model.Snapshot) bool {
	if !s.board.Swap(snap) {
		return false
	}
	metrics.UpdateTrackedEvents(s.board.Len())
	s.broker.Publish(snap.EventID)
	return true
}

// Leaderboard returns the current snapshot of eventID. The first read of an
// event computes it synchronously; later reads serve whatever the workers
// last published.
func (s *Service) Leaderboard(ctx context.Context, eventID string) (*model.Snapshot, error) {
	if !s.running() {
		return nil, ErrNotStarted
	}
	if eventID == "" {
		return nil, ErrMissingEventID
	}
	if snap, ok := s.board.Get(eventID); ok {
		return snap, nil
	}
	snap, err := s.refresher.Refresh(ctx, eventID)
	if err != nil {
		metrics.RecordErrorByComponent("service", "refresh")
		return nil, err
	}
	s.Publish(snap)
	if cur, ok := s.board.Get(eventID); ok {
		return cur, nil
	}
	return snap, nil
}

// Watch subscribes to leaderboard updates of eventID.
func (s *Service) Watch(eventID string) (<-chan struct{}, func()) {
	return s.broker.Subscribe(eventID)
}

// ScoringConfig loads the current configuration of eventID.
func (s *Service) ScoringConfig(ctx context.Context, eventID string) (model.ScoringConfiguration, error) {
	if eventID == "" {
		return model.ScoringConfiguration{}, ErrMissingEventID
	}
	cfg, _, err := repository.FetchConfig(ctx, s.store, eventID, s.defaultMin, s.defaultMax)
	return cfg, err
}

// DefaultScores returns the initial form values for a track.
func (s *Service) DefaultScores(ctx context.Context, eventID, trackID string) (model.Scores, error) {
	cfg, err := s.ScoringConfig(ctx, eventID)
	if err != nil {
		return nil, err
	}
	track, ok := cfg.Tracks[trackID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}
	return scoring.DefaultScores(&track, s.defaultMin, s.defaultMax), nil
}

// ExportAggregate saves one leaderboard file per track of eventID.
func (s *Service) ExportAggregate(ctx context.Context, eventID string) ([]export.File, error) {
	snap, err := s.Leaderboard(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportAggregate(ctx, snap)
}

// ExportRaw saves one raw score file per track of eventID.
func (s *Service) ExportRaw(ctx context.Context, eventID string) ([]export.File, error) {
	snap, err := s.Leaderboard(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.exporter.ExportRaw(ctx, snap)
}

// ExportFile renders a single track's file for direct download. track
// matches a track id or display name and may be empty when the event has
// exactly one track.
func (s *Service) ExportFile(ctx context.Context, eventID string, kind export.Kind, track string) (export.File, error) {
	snap, err := s.Leaderboard(ctx, eventID)
	if err != nil {
		return export.File{}, err
	}
	files, err := export.Render(kind, snap)
	if err != nil {
		return export.File{}, err
	}
	if track == "" {
		if len(files) == 1 {
			return files[0], nil
		}
		return export.File{}, ErrTrackRequired
	}
	for _, f := range files {
		if f.TrackID == track || f.TrackName == track {
			return f, nil
		}
	}
	return export.File{}, fmt.Errorf("%w: %s", ErrTrackNotFound, track)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":       s.started,
		"workerCount":   s.workerCount,
		"queueSize":     s.queueSize,
		"dedupeSize":    s.dedupeSize,
		"trackedEvents": s.board.Len(),
	}
	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		stats["dedupeEntries"] = s.deduper.Size()
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}

// IsNotFound reports whether err means the requested resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownTrack) ||
		errors.Is(err, ErrTrackNotFound) ||
		errors.Is(err, repository.ErrUnknownProject) ||
		errors.Is(err, repository.ErrUnknownTrack)
}
