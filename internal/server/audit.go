package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"file-drop/internal/models"
)

// ActivityLog is the append-only record of user and admin actions.
type ActivityLog interface {
	Record(ctx context.Context, e models.ActivityEntry) error
	Recent(ctx context.Context, action models.ActivityAction, limit int) ([]models.ActivityEntry, error)
}

// recordActivity writes e best-effort. The request outcome never depends on
// it.
func (s *Server) recordActivity(r *http.Request, e models.ActivityEntry) {
	if s.activity == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
	defer cancel()
	if err := s.activity.Record(ctx, e); err != nil {
		s.reqLog(r, "activity").WithError(err).WithField("action", e.Action).Warn("activity not recorded")
	}
}

// ActivityHandler returns recent activity, optionally filtered by action.
func (s *Server) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	if s.activity == nil {
		writeJSON(w, http.StatusOK, []models.ActivityEntry{})
		return
	}
	q := r.URL.Query()
	limit := 100
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeErrorMsg(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	list, err := s.activity.Recent(r.Context(), models.ActivityAction(q.Get("action")), limit)
	if err != nil {
		s.writeError(w, r, "activity", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
