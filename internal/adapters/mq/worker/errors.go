package worker

import "errors"

// Sentinel kinds for refresh failures; the wrapped error carries the cause.
var (
	ErrFetchRecords = errors.New("fetch score records")
	ErrFetchTracks  = errors.New("fetch event tracks")
)

// stage names a failed refresh for metrics.
func stage(err error) string {
	switch {
	case errors.Is(err, ErrFetchRecords):
		return "fetch_records"
	case errors.Is(err, ErrFetchTracks):
		return "fetch_tracks"
	default:
		return "unknown"
	}
}
