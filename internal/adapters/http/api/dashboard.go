package api

import (
	"net/http"
)

// DashboardHandler serves the live leaderboard page.
type DashboardHandler struct {
	page string
}

// NewDashboardHandler returns a handler for the embedded page.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{page: "dashboard.html"}
}

// HandleDashboard handles GET /dashboard?event=E. The page opens the
// event's leaderboard stream itself; the server only ships the markup.
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, staticFS, h.page)
}
