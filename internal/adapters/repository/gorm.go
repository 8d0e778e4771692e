package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
)

const defaultPingAttempts = 30

type projectRow struct {
	ProjectID   string `gorm:"column:project_id;primaryKey"`
	EventID     string `gorm:"column:event_id;index;not null"`
	ProjectName string `gorm:"column:project_name"`
	LeadName    string `gorm:"column:lead_name"`
	LeadEmail   string `gorm:"column:lead_email"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (projectRow) TableName() string { return "projects" }

type eventTrackRow struct {
	TrackID         string         `gorm:"column:track_id;primaryKey"`
	EventID         string         `gorm:"column:event_id;index;not null"`
	Name            string         `gorm:"column:name;not null"`
	Description     string         `gorm:"column:description"`
	ScoringCriteria criteriaColumn `gorm:"column:scoring_criteria;type:jsonb"`
}

func (eventTrackRow) TableName() string { return "event_tracks" }

type scoreRow struct {
	ID        string       `gorm:"column:id;primaryKey"`
	ProjectID string       `gorm:"column:project_id;not null;uniqueIndex:idx_project_scores_triple,priority:1"`
	JudgeID   string       `gorm:"column:judge_id;not null;uniqueIndex:idx_project_scores_triple,priority:2"`
	TrackID   string       `gorm:"column:track_id;not null;index;uniqueIndex:idx_project_scores_triple,priority:3"`
	Scores    scoresColumn `gorm:"column:scores;type:jsonb;not null"`
	Comments  string       `gorm:"column:comments"`
	CreatedAt time.Time    `gorm:"column:created_at"`
	UpdatedAt time.Time    `gorm:"column:updated_at"`
}

func (scoreRow) TableName() string { return "project_scores" }

// scoreJoinRow is a project_scores row joined with its project and track.
type scoreJoinRow struct {
	ID          string       `gorm:"column:id"`
	ProjectID   string       `gorm:"column:project_id"`
	TrackID     string       `gorm:"column:track_id"`
	JudgeID     string       `gorm:"column:judge_id"`
	Scores      scoresColumn `gorm:"column:scores"`
	Comments    string       `gorm:"column:comments"`
	UpdatedAt   time.Time    `gorm:"column:updated_at"`
	EventID     string       `gorm:"column:event_id"`
	ProjectName string       `gorm:"column:project_name"`
	LeadName    string       `gorm:"column:lead_name"`
	LeadEmail   string       `gorm:"column:lead_email"`
	TrackName   string       `gorm:"column:track_name"`
}

func (r *scoreJoinRow) toModel() model.ScoreRecord {
	return model.ScoreRecord{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		TrackID:     r.TrackID,
		JudgeID:     r.JudgeID,
		EventID:     r.EventID,
		Scores:      model.Scores(r.Scores),
		Comments:    r.Comments,
		ProjectName: r.ProjectName,
		LeadName:    r.LeadName,
		LeadEmail:   r.LeadEmail,
		TrackName:   r.TrackName,
		UpdatedAt:   r.UpdatedAt,
	}
}

const selectScores = `s.id, s.project_id, s.track_id, s.judge_id, s.scores, s.comments, s.updated_at,
	p.event_id, p.project_name, p.lead_name, p.lead_email, COALESCE(t.name, '') AS track_name`

// Trigger statements run after AutoMigrate. Every change to project_scores
// notifies NotifyChannel with the owning project's event id.
var triggerStatements = []string{
	`CREATE OR REPLACE FUNCTION notify_project_scores_changed() RETURNS trigger AS $$
DECLARE
	pid text;
	ev text;
BEGIN
	IF TG_OP = 'DELETE' THEN
		pid := OLD.project_id;
	ELSE
		pid := NEW.project_id;
	END IF;
	SELECT event_id INTO ev FROM projects WHERE project_id = pid;
	PERFORM pg_notify('` + NotifyChannel + `', COALESCE(ev, ''));
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS project_scores_changed ON project_scores`,
	`CREATE TRIGGER project_scores_changed AFTER INSERT OR UPDATE OR DELETE ON project_scores
	FOR EACH ROW EXECUTE FUNCTION notify_project_scores_changed()`,
}

// GormStore is the PostgreSQL Store.
type GormStore struct {
	db           *gorm.DB
	logger       logger.Logger
	pingAttempts int
	slowQuery    time.Duration
}

// NewGormStore wraps an open gorm handle. Queries issued through the store
// log via the store's logger.
func NewGormStore(db *gorm.DB, opts ...GormOption) *GormStore {
	s := &GormStore{
		logger:       logger.Get().Named("repository"),
		pingAttempts: defaultPingAttempts,
		slowQuery:    defaultSlowQuery,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.db = db.Session(&gorm.Session{Logger: newGormLog(s.logger, s.slowQuery)})
	return s
}

// Open connects to dsn and waits for the database to answer.
func Open(ctx context.Context, dsn string, opts ...GormOption) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := NewGormStore(db, opts...)
	if err := s.ping(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// ping retries with a growing delay between attempts.
func (s *GormStore) ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	for attempt := 1; attempt <= s.pingAttempts; attempt++ {
		if err = sqlDB.PingContext(ctx); err == nil {
			return nil
		}
		s.logger.Warn(ctx, "database not ready", logger.Int("attempt", attempt), logger.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("database ping timeout: %w", err)
}

// Migrate creates the tables and the change trigger.
func (s *GormStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&projectRow{}, &eventTrackRow{}, &scoreRow{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	for _, stmt := range triggerStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install change trigger: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// FetchScoreRecords implements Store.
func (s *GormStore) FetchScoreRecords(ctx context.Context, eventID string) ([]model.ScoreRecord, error) {
	var rows []scoreJoinRow
	err := s.db.WithContext(ctx).
		Table("project_scores AS s").
		Select(selectScores).
		Joins("JOIN projects p ON p.project_id = s.project_id").
		Joins("LEFT JOIN event_tracks t ON t.track_id = s.track_id").
		Where("p.event_id = ?", eventID).
		Order("s.track_id, s.created_at, s.id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query scores for event %s: %w", eventID, err)
	}
	out := make([]model.ScoreRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].toModel()
	}
	return out, nil
}

// FetchEventTracks implements Store.
func (s *GormStore) FetchEventTracks(ctx context.Context, eventID string) ([]model.EventTrack, error) {
	var rows []eventTrackRow
	if err := s.db.WithContext(ctx).Where("event_id = ?", eventID).Order("track_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query tracks for event %s: %w", eventID, err)
	}
	out := make([]model.EventTrack, len(rows))
	for i, r := range rows {
		out[i] = model.EventTrack{
			TrackID:         r.TrackID,
			EventID:         r.EventID,
			Name:            r.Name,
			Description:     r.Description,
			ScoringCriteria: model.TrackConfig(r.ScoringCriteria),
		}
	}
	return out, nil
}

// UpsertScore implements Store. The (project, judge, track) unique index
// turns a resubmission into an update of scores and comments.
func (s *GormStore) UpsertScore(ctx context.Context, rec model.ScoreRecord) (model.ScoreRecord, error) {
	if err := validateRecord(&rec); err != nil {
		return model.ScoreRecord{}, err
	}
	var out model.ScoreRecord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p projectRow
		if err := tx.First(&p, "project_id = ?", rec.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownProject, rec.ProjectID)
			}
			return err
		}
		var t eventTrackRow
		if err := tx.First(&t, "track_id = ? AND event_id = ?", rec.TrackID, p.EventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrUnknownTrack, rec.TrackID)
			}
			return err
		}

		now := time.Now().UTC()
		row := scoreRow{
			ID:        uuid.NewString(),
			ProjectID: rec.ProjectID,
			JudgeID:   rec.JudgeID,
			TrackID:   rec.TrackID,
			Scores:    scoresColumn(rec.Scores),
			Comments:  rec.Comments,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := upsertScoreClause(tx).Create(&row).Error; err != nil {
			return err
		}
		if err := tx.First(&row, "project_id = ? AND judge_id = ? AND track_id = ?",
			rec.ProjectID, rec.JudgeID, rec.TrackID).Error; err != nil {
			return err
		}

		out = model.ScoreRecord{
			ID:          row.ID,
			ProjectID:   row.ProjectID,
			TrackID:     row.TrackID,
			JudgeID:     row.JudgeID,
			EventID:     p.EventID,
			Scores:      model.Scores(row.Scores),
			Comments:    row.Comments,
			ProjectName: p.ProjectName,
			LeadName:    p.LeadName,
			LeadEmail:   p.LeadEmail,
			TrackName:   t.Name,
			UpdatedAt:   row.UpdatedAt,
		}
		return nil
	})
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("upsert score: %w", err)
	}
	return out, nil
}

func upsertScoreClause(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "judge_id"}, {Name: "track_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"scores", "comments", "updated_at"}),
	})
}

// EventIDs implements Store.
func (s *GormStore) EventIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&projectRow{}).Distinct().Order("event_id").Pluck("event_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return ids, nil
}

// Seed writes a fixture in one transaction. Existing projects and tracks
// are updated in place.
func (s *GormStore) Seed(ctx context.Context, f *Fixture) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ev := range f.Events {
			for _, p := range ev.Projects {
				row := projectRow{
					ProjectID:   p.ProjectID,
					EventID:     ev.EventID,
					ProjectName: p.ProjectName,
					LeadName:    p.LeadName,
					LeadEmail:   p.LeadEmail,
				}
				if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
					return fmt.Errorf("project %s: %w", p.ProjectID, err)
				}
			}
			for _, t := range ev.Tracks {
				row := eventTrackRow{
					TrackID:         t.TrackID,
					EventID:         ev.EventID,
					Name:            t.Name,
					Description:     t.Description,
					ScoringCriteria: criteriaColumn(t.ScoringCriteria),
				}
				if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
					return fmt.Errorf("track %s: %w", t.TrackID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	for _, ev := range f.Events {
		for _, sc := range ev.Scores {
			if _, err := s.UpsertScore(ctx, sc.Record(ev.EventID)); err != nil {
				return fmt.Errorf("seed score %s/%s/%s: %w", sc.ProjectID, sc.TrackID, sc.JudgeID, err)
			}
		}
	}
	return nil
}
