package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/judgeboard/internal/adapters/http/api"
	"github.com/okian/judgeboard/internal/adapters/http/swagger"
	"github.com/okian/judgeboard/internal/adapters/mq/feed"
	"github.com/okian/judgeboard/internal/adapters/repository"
	app "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/config"
	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/pkg/logger"
)

// storeSetup is the opened store plus whatever turns its changes into
// invalidations.
type storeSetup struct {
	store repository.Store
	// connect routes store changes to target. For postgres it starts the
	// LISTEN loop and returns when ctx is done.
	connect func(ctx context.Context, target feed.Invalidator)
	close   func() error
}

// buildStore opens the configured store and loads the seed file if one is set.
func buildStore(ctx context.Context, cfg *config.Config) (*storeSetup, error) {
	var setup *storeSetup
	switch cfg.StoreDriver {
	case config.StoreMemory:
		var target feed.Invalidator
		mem := repository.NewMemoryStore(repository.WithChangeHook(func(eventID string) {
			if target != nil {
				target.Invalidate(context.Background(), eventID, "store")
			}
		}))
		setup = &storeSetup{
			store:   mem,
			connect: func(_ context.Context, t feed.Invalidator) { target = t },
			close:   func() error { return nil },
		}
	case config.StorePostgres:
		gs, err := repository.Open(ctx, cfg.DatabaseURL,
			repository.WithGormLogger(logger.Get().Named("repository")))
		if err != nil {
			return nil, err
		}
		if err := gs.Migrate(ctx); err != nil {
			_ = gs.Close()
			return nil, err
		}
		setup = &storeSetup{
			store: gs,
			connect: func(ctx context.Context, t feed.Invalidator) {
				go feed.NewPgListener(cfg.DatabaseURL, repository.NotifyChannel, t).Run(ctx)
			},
			close: gs.Close,
		}
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", config.ErrInvalidConfig, cfg.StoreDriver)
	}

	if cfg.SeedFile != "" {
		fixture, err := repository.LoadFixture(cfg.SeedFile)
		if err == nil {
			err = setup.store.(repository.Seeder).Seed(ctx, fixture)
		}
		if err != nil {
			_ = setup.close()
			return nil, fmt.Errorf("seed %s: %w", cfg.SeedFile, err)
		}
	}
	return setup, nil
}

// buildSink returns the export destination named by the configuration.
func buildSink(ctx context.Context, cfg *config.Config) (export.Sink, error) {
	switch cfg.ExportSink {
	case config.SinkNone:
		return export.NopSink{}, nil
	case config.SinkLocal:
		return export.NewDirSink(cfg.ExportDir), nil
	case config.SinkS3:
		s3, err := export.NewS3Sink(ctx, export.S3Config{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("%w: unknown export sink %q", config.ErrInvalidConfig, cfg.ExportSink)
	}
}

// newService builds the service over store with the configured limits.
func newService(cfg *config.Config, store repository.Store, sink export.Sink) *app.Service {
	return app.New(store,
		app.WithLogger(logger.Get().Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithScoreBounds(cfg.DefaultMin, cfg.DefaultMax),
		app.WithExportSink(sink),
	)
}

// startResync schedules the periodic full refresh. A zero interval
// disables it.
func startResync(cfg *config.Config, store repository.Store, svc *app.Service) (*feed.Resync, error) {
	if cfg.ResyncInterval == 0 {
		return nil, nil
	}
	r, err := feed.NewResync(store, svc, cfg.ResyncInterval)
	if err != nil {
		if errors.Is(err, feed.ErrInvalidInterval) {
			return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
		}
		return nil, err
	}
	r.Start()
	return r, nil
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, cfg *config.Config, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithMaxBodyBytes(cfg.MaxBodyBytes)).Register(ctx, mux)
	return mux
}
