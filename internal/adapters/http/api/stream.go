// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/internal/domain/types"
	"github.com/okian/judgeboard/pkg/logger"
)

// StreamDependencies defines the interface for leaderboard streams.
type StreamDependencies interface {
	Leaderboard(ctx context.Context, eventID string) (*model.Snapshot, error)
	Watch(eventID string) (<-chan struct{}, func())
}

// StreamHandler pushes leaderboard snapshots as server-sent events.
type StreamHandler struct {
	deps      StreamDependencies
	keepAlive time.Duration
	logger    logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(deps StreamDependencies, keepAlive time.Duration, l logger.Logger) *StreamHandler {
	return &StreamHandler{deps: deps, keepAlive: keepAlive, logger: l}
}

// HandleStream handles GET /events/{eventID}/leaderboard/stream?track=T.
// The current leaderboard is sent immediately and again after every
// published change.
func (h *StreamHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard_stream"
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "internal_error", NewKind(op, ErrStreamingFail))
		return
	}

	ctx := r.Context()
	eventID := r.PathValue("eventID")
	track := r.URL.Query().Get("track")

	// Subscribe before the first read so no publish is lost in between.
	updates, cancel := h.deps.Watch(eventID)
	defer cancel()

	snap, err := h.deps.Leaderboard(ctx, eventID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	var sent uint64
	send := func(snap *model.Snapshot) error {
		if snap.Version <= sent {
			return nil
		}
		data, err := json.Marshal(types.FromSnapshot(snap, track))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: leaderboard\nid: %d\ndata: %s\n\n", snap.Version, data); err != nil {
			return err
		}
		flusher.Flush()
		sent = snap.Version
		return nil
	}
	if err := send(snap); err != nil {
		return
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ":\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case <-updates:
			snap, err := h.deps.Leaderboard(ctx, eventID)
			if err != nil {
				h.logger.Warn(ctx, "stream refresh failed", logger.String("event_id", eventID), logger.Error(err))
				continue
			}
			if err := send(snap); err != nil {
				return
			}
		}
	}
}
