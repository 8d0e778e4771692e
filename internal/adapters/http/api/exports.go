// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/internal/domain/types"
)

// ExportDependencies defines the interface for CSV exports.
type ExportDependencies interface {
	ExportAggregate(ctx context.Context, eventID string) ([]export.File, error)
	ExportRaw(ctx context.Context, eventID string) ([]export.File, error)
	ExportFile(ctx context.Context, eventID string, kind export.Kind, track string) (export.File, error)
}

// ExportsHandler handles export requests.
type ExportsHandler struct {
	deps ExportDependencies
}

// NewExportsHandler creates a new exports handler.
func NewExportsHandler(deps ExportDependencies) *ExportsHandler {
	return &ExportsHandler{deps: deps}
}

// HandleExport handles POST /events/{eventID}/exports/{kind}. Files are
// saved to the configured sink and their names returned.
func (h *ExportsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export"
	eventID := r.PathValue("eventID")
	kind, err := export.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var files []export.File
	switch kind {
	case export.KindAggregate:
		files, err = h.deps.ExportAggregate(r.Context(), eventID)
	case export.KindRaw:
		files, err = h.deps.ExportRaw(r.Context(), eventID)
	}
	if err != nil {
		writeServiceError(w, op, err)
		return
	}

	res := types.ExportResult{EventID: eventID, Kind: string(kind), Files: make([]string, len(files))}
	for i, f := range files {
		res.Files[i] = f.Name
	}
	writeJSON(w, http.StatusAccepted, res)
}

// HandleDownload handles GET /events/{eventID}/exports/{kind}.csv?track=T
// and streams a single track's file.
func (h *ExportsHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_download"
	name, ok := strings.CutSuffix(r.PathValue("kind"), ".csv")
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind, err := export.ParseKind(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	f, err := h.deps.ExportFile(r.Context(), r.PathValue("eventID"), kind, r.URL.Query().Get("track"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(f.Data)
}
