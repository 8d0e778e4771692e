// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	service "github.com/okian/judgeboard/internal/app"
)

// RefreshDependencies defines the interface for manual refreshes.
type RefreshDependencies interface {
	Invalidate(ctx context.Context, eventID, reason string) bool
}

// RefreshHandler handles manual refresh requests.
type RefreshHandler struct {
	deps RefreshDependencies
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(deps RefreshDependencies) *RefreshHandler {
	return &RefreshHandler{deps: deps}
}

type refreshResponse struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
}

// HandleRefresh handles POST /events/{eventID}/refresh requests.
func (h *RefreshHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	const op = "api.refresh"
	eventID := r.PathValue("eventID")
	if !h.deps.Invalidate(r.Context(), eventID, service.ReasonManual) {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, refreshResponse{Status: "queued", EventID: eventID})
}
