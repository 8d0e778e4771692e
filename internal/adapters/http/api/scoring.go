// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/judgeboard/internal/domain/model"
)

// ScoringDependencies defines the interface for scoring configuration reads.
type ScoringDependencies interface {
	ScoringConfig(ctx context.Context, eventID string) (model.ScoringConfiguration, error)
	DefaultScores(ctx context.Context, eventID, trackID string) (model.Scores, error)
}

// ScoringHandler serves scoring configuration to judging forms.
type ScoringHandler struct {
	deps ScoringDependencies
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(deps ScoringDependencies) *ScoringHandler {
	return &ScoringHandler{deps: deps}
}

// HandleGetConfig handles GET /events/{eventID}/scoring-config.
func (h *ScoringHandler) HandleGetConfig(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scoring_config"
	cfg, err := h.deps.ScoringConfig(r.Context(), r.PathValue("eventID"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleGetDefaults handles GET /events/{eventID}/tracks/{trackID}/defaults.
func (h *ScoringHandler) HandleGetDefaults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_track_defaults"
	scores, err := h.deps.DefaultScores(r.Context(), r.PathValue("eventID"), r.PathValue("trackID"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
