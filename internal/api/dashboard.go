package api

import (
	"net/http"
	"time"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/auth"
)

// handleDashboard handles GET /dashboard. Manager role required.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.GetUserByID(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	if !u.IsManager() {
		respondError(w, apperr.Forbidden("manager role required"))
		return
	}

	summary, err := s.store.TeamSummary(r.Context(), time.Now())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
