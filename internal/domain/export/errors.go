package export

import "errors"

var (
	// ErrNothingToExport is returned when there is no data to write.
	ErrNothingToExport = errors.New("nothing to export")
	// ErrUnknownKind is returned for an export kind other than aggregate or raw.
	ErrUnknownKind = errors.New("unknown export kind")
	// ErrSinkRequired is returned when an exporter is built without a sink.
	ErrSinkRequired = errors.New("export sink is required")
	// ErrBucketRequired is returned when an S3 sink has no bucket.
	ErrBucketRequired = errors.New("s3 bucket is required")
	// ErrInvalidFileName is returned when a sink is handed a name with path separators.
	ErrInvalidFileName = errors.New("invalid export file name")
)
