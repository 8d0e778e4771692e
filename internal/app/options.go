package service

import (
	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending invalidations.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithScoreBounds sets the range used for criteria that omit min or max.
func WithScoreBounds(minScore, maxScore float64) Option {
	return func(s *Service) {
		if maxScore > minScore {
			s.defaultMin = minScore
			s.defaultMax = maxScore
		}
	}
}

// WithExportSink sets where export files are saved.
func WithExportSink(sink export.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
