package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/model"
)

// handleListNotifications handles GET /notifications.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := s.notices.List(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

// handleMarkRead handles PATCH /notifications/{notificationID}/read.
// Recipients may only mark their own notifications.
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["notificationID"]

	n, err := s.store.GetNotificationByID(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if n.UserID != auth.UserID(r.Context()) {
		respondError(w, apperr.Forbidden("notification belongs to another user"))
		return
	}

	if err := s.notices.MarkRead(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"is_read": true})
}

// handleMarkAllRead handles PATCH /notifications/mark_all_read.
func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	count, err := s.notices.MarkAllRead(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}
