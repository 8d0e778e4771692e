// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and JUDGEBOARD_ env vars.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Export sinks.
const (
	SinkNone  = "none"
	SinkLocal = "local"
	SinkS3    = "s3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects json or text output.
	LogFormat string `koanf:"log_format" validate:"oneof=json text"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr" validate:"required"`

	// StoreDriver selects where score records live: memory or postgres.
	StoreDriver string `koanf:"store_driver" validate:"oneof=memory postgres"`

	// DatabaseURL is the postgres DSN, required for the postgres driver.
	DatabaseURL string `koanf:"database_url" validate:"required_if=StoreDriver postgres"`

	// SeedFile is an optional YAML fixture loaded into the store at startup.
	SeedFile string `koanf:"seed_file"`

	// ExportSink selects where export files are saved: none, local or s3.
	ExportSink string `koanf:"export_sink" validate:"oneof=none local s3"`

	// ExportDir is the target directory of the local sink.
	ExportDir string `koanf:"export_dir" validate:"required_if=ExportSink local"`

	// S3 settings for the s3 sink. Endpoint and keys are optional; the
	// default AWS credential chain is used when keys are empty.
	S3Bucket          string `koanf:"s3_bucket" validate:"required_if=ExportSink s3"`
	S3Prefix          string `koanf:"s3_prefix"`
	S3Region          string `koanf:"s3_region"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3UsePathStyle    bool   `koanf:"s3_use_path_style"`

	// QueueSize bounds the pending invalidation queue.
	QueueSize int `koanf:"queue_size" validate:"gt=0"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count" validate:"gt=0"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size" validate:"gt=0"`

	// ResyncInterval is how often every event is refreshed regardless of
	// notifications. Zero disables the resync job.
	ResyncInterval time.Duration `koanf:"resync_interval" validate:"gte=0"`

	// DefaultMin and DefaultMax bound criteria that omit min or max.
	DefaultMin float64 `koanf:"default_min"`
	DefaultMax float64 `koanf:"default_max" validate:"gtfield=DefaultMin"`

	// MaxBodyBytes caps request bodies.
	MaxBodyBytes int64 `koanf:"max_body_bytes" validate:"gt=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "json",
		Addr:            ":9080",
		StoreDriver:     StoreMemory,
		ExportSink:      SinkLocal,
		ExportDir:       "exports",
		S3Region:        "auto",
		QueueSize:       1024,
		WorkerCount:     runtime.NumCPU(),
		DedupeSize:      50_000,
		ResyncInterval:  time.Minute,
		DefaultMin:      1,
		DefaultMax:      10,
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 10 * time.Second,
	}
}
