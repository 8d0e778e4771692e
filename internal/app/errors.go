package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrMissingEventID    = errors.New("event_id is required")
	ErrUnknownTrack      = errors.New("track is not configured for event")
	ErrInvalidSubmission = errors.New("invalid score submission")
	ErrTrackNotFound     = errors.New("no export for track")
	ErrTrackRequired     = errors.New("track is required when an event has several tracks")
)
