// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/judgeboard/internal/adapters/repository"
	service "github.com/okian/judgeboard/internal/app"
	"github.com/okian/judgeboard/internal/domain/export"
	"github.com/okian/judgeboard/internal/domain/model"
	"github.com/okian/judgeboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ScoreDependencies
	LeaderboardDependencies
	StreamDependencies
	ScoringDependencies
	RefreshDependencies
	ExportDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	scoresHandler      *ScoresHandler
	leaderboardHandler *LeaderboardHandler
	streamHandler      *StreamHandler
	scoringHandler     *ScoringHandler
	refreshHandler     *RefreshHandler
	exportsHandler     *ExportsHandler
	dashboardHandler   *DashboardHandler
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
	keepAlive    time.Duration
	logger       logger.Logger
}

// WithMaxBodyBytes caps the size of request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// WithKeepAlive sets the comment interval of leaderboard streams.
func WithKeepAlive(d time.Duration) Option {
	return func(o *serverOptions) {
		if d > 0 {
			o.keepAlive = d
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(o *serverOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := serverOptions{
		maxBodyBytes: 1 << 20,
		keepAlive:    15 * time.Second,
		logger:       logger.Get().Named("api"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		scoresHandler:      NewScoresHandler(deps, o.maxBodyBytes),
		leaderboardHandler: NewLeaderboardHandler(deps),
		streamHandler:      NewStreamHandler(deps, o.keepAlive, o.logger),
		scoringHandler:     NewScoringHandler(deps),
		refreshHandler:     NewRefreshHandler(deps),
		exportsHandler:     NewExportsHandler(deps),
		dashboardHandler:   NewDashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("POST /scores", MetricsMiddleware(s.scoresHandler.HandlePostScore, "scores"))
	mux.HandleFunc("GET /events/{eventID}/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /events/{eventID}/leaderboard/stream", s.streamHandler.HandleStream)
	mux.HandleFunc("GET /events/{eventID}/scoring-config", MetricsMiddleware(s.scoringHandler.HandleGetConfig, "scoring_config"))
	mux.HandleFunc("GET /events/{eventID}/tracks/{trackID}/defaults", MetricsMiddleware(s.scoringHandler.HandleGetDefaults, "track_defaults"))
	mux.HandleFunc("POST /events/{eventID}/refresh", MetricsMiddleware(s.refreshHandler.HandleRefresh, "refresh"))
	mux.HandleFunc("POST /events/{eventID}/exports/{kind}", MetricsMiddleware(s.exportsHandler.HandleExport, "exports"))
	mux.HandleFunc("GET /events/{eventID}/exports/{kind}", MetricsMiddleware(s.exportsHandler.HandleDownload, "export_download"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps service and store errors to HTTP statuses.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, export.ErrNothingToExport):
		writeError(w, http.StatusNotFound, "nothing_to_export", Wrap(op, err))
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrMissingEventID),
		errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrTrackRequired),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, export.ErrUnknownKind),
		errors.Is(err, model.ErrInvalidScoreValue):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
