// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/model"
)

// ScoreDependencies defines the interface for score submission.
type ScoreDependencies interface {
	SubmitScore(ctx context.Context, sub service.Submission) (service.SubmitResult, error)
}

// ScoresHandler handles score submissions.
type ScoresHandler struct {
	deps         ScoreDependencies
	maxBodyBytes int64
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies, maxBodyBytes int64) *ScoresHandler {
	return &ScoresHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// scoreRequest mirrors the OpenAPI schema for POST /scores.
type scoreRequest struct {
	SubmissionID string       `json:"submission_id"`
	EventID      string       `json:"event_id"`
	ProjectID    string       `json:"project_id"`
	TrackID      string       `json:"track_id"`
	JudgeID      string       `json:"judge_id"`
	Scores       model.Scores `json:"scores"`
	Comments     string       `json:"comments"`
}

func (s scoreRequest) validate() error {
	switch {
	case strings.TrimSpace(s.EventID) == "":
		return errors.New("missing event_id")
	case strings.TrimSpace(s.ProjectID) == "":
		return errors.New("missing project_id")
	case strings.TrimSpace(s.TrackID) == "":
		return errors.New("missing track_id")
	case strings.TrimSpace(s.JudgeID) == "":
		return errors.New("missing judge_id")
	case len(s.Scores) == 0:
		return errors.New("missing scores")
	}
	for id, v := range s.Scores {
		if !v.Valid() {
			return fmt.Errorf("%w: %s", model.ErrInvalidScoreValue, id)
		}
	}
	return nil
}

type ackResponse struct {
	Status    string             `json:"status"`
	Duplicate bool               `json:"duplicate"`
	Record    *model.ScoreRecord `json:"record,omitempty"`
}

// HandlePostScore handles POST /scores requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", WrapKind(op, ErrBadRequest, err))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.SubmitScore(r.Context(), service.Submission(req))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if res.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Record: &res.Record})
}
