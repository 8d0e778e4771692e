package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrInvalidRecord  = errors.New("invalid score record")
	ErrUnknownProject = errors.New("project not found")
	ErrUnknownTrack   = errors.New("track not found for event")
	ErrInvalidFixture = errors.New("invalid fixture")
)
