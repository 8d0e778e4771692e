package export

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
	"github.com/okian/judgeboard/pkg/metrics"
)

// Option applies a configuration option to the Exporter.
type Option func(*Exporter)

// WithLogger sets a custom logger for the exporter.
func WithLogger(l logger.Logger) Option {
	return func(e *Exporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTracer sets the tracer used for export spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Exporter) {
		if t != nil {
			e.tracer = t
		}
	}
}

// Exporter renders snapshots and hands each file to its sink. A file the
// sink rejects is logged and counted; the remaining files are still saved.
type Exporter struct {
	sink   Sink
	logger logger.Logger
	tracer trace.Tracer
}

// NewExporter creates an exporter writing to sink.
func NewExporter(sink Sink, opts ...Option) (*Exporter, error) {
	if sink == nil {
		return nil, ErrSinkRequired
	}
	e := &Exporter{
		sink:   sink,
		logger: logger.Get().Named("export"),
		tracer: otel.Tracer("github.com/okian/judgeboard/internal/domain/export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ExportAggregate writes one leaderboard file per track of snap.
func (e *Exporter) ExportAggregate(ctx context.Context, snap *model.Snapshot) ([]File, error) {
	return e.export(ctx, KindAggregate, snap)
}

// ExportRaw writes one raw record file per track of snap.
func (e *Exporter) ExportRaw(ctx context.Context, snap *model.Snapshot) ([]File, error) {
	return e.export(ctx, KindRaw, snap)
}

// Render produces the files of kind without saving them.
func Render(kind Kind, snap *model.Snapshot) ([]File, error) {
	if snap == nil {
		return nil, ErrNothingToExport
	}
	switch kind {
	case KindAggregate:
		return AggregateFiles(snap.Tracks, snap.Config, snap.EventTracks, snap.EventID)
	case KindRaw:
		return RawFiles(snap.Records, snap.Config, snap.EventID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func (e *Exporter) export(ctx context.Context, kind Kind, snap *model.Snapshot) ([]File, error) {
	eventID := ""
	if snap != nil {
		eventID = snap.EventID
	}
	ctx, span := e.tracer.Start(ctx, "export."+string(kind), trace.WithAttributes(
		attribute.String("event.id", eventID),
	))
	defer span.End()

	files, err := Render(kind, snap)
	if err != nil {
		if errors.Is(err, ErrNothingToExport) {
			metrics.RecordExportEmpty(string(kind))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	failed := 0
	for _, f := range files {
		if err := e.sink.Save(ctx, f.Name, f.ContentType, f.Data); err != nil {
			failed++
			metrics.RecordExportFailure(string(kind))
			metrics.RecordErrorByComponent("export", "sink")
			e.logger.Error(ctx, "failed to save export file",
				logger.String("file", f.Name),
				logger.String("event_id", eventID),
				logger.Error(err))
		}
	}
	metrics.RecordExport(string(kind), len(files))
	span.SetAttributes(attribute.Int("export.files", len(files)), attribute.Int("export.failed", failed))
	e.logger.Info(ctx, "export written",
		logger.String("kind", string(kind)),
		logger.String("event_id", eventID),
		logger.Int("files", len(files)),
		logger.Int("failed", failed))
	return files, nil
}
