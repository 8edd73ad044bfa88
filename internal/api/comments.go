package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/taskboard/taskboard/internal/apperr"
	"github.com/taskboard/taskboard/internal/auth"
)

// handleAddComment handles POST /tasks/{taskID}/comments.
func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body            string  `json:"body"`
		ParentCommentID *string `json:"parent_comment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("body", "invalid request payload"))
		return
	}

	created, err := s.comments.Add(
		r.Context(),
		mux.Vars(r)["taskID"],
		auth.UserID(r.Context()),
		req.Body,
		req.ParentCommentID,
	)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// handleEditComment handles PATCH /comments/{commentID}.
func (s *Server) handleEditComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Body string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, apperr.Validation("body", "invalid request payload"))
		return
	}

	updated, err := s.comments.Edit(
		r.Context(),
		mux.Vars(r)["commentID"],
		auth.UserID(r.Context()),
		req.Body,
	)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteComment handles DELETE /comments/{commentID}.
func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	err := s.comments.Delete(r.Context(), mux.Vars(r)["commentID"], auth.UserID(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
