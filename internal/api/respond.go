package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/taskboard/taskboard/internal/apperr"
)

// respondJSON writes a JSON body with the given status.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError translates a typed error into an HTTP status and a
// {error: message} body. Unrecognized errors become a generic 500; the
// detail is logged server-side and never crosses the boundary.
func respondError(w http.ResponseWriter, err error) {
	var (
		validationErr   *apperr.ValidationError
		notFoundErr     *apperr.NotFoundError
		forbiddenErr    *apperr.ForbiddenError
		unauthorizedErr *apperr.UnauthorizedError
		conflictErr     *apperr.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		respondJSON(w, http.StatusNotFound, map[string]string{"error": notFoundErr.Error()})
	case errors.As(err, &forbiddenErr):
		respondJSON(w, http.StatusForbidden, map[string]string{"error": forbiddenErr.Error()})
	case errors.As(err, &unauthorizedErr):
		respondJSON(w, http.StatusUnauthorized, map[string]string{"error": unauthorizedErr.Error()})
	case errors.As(err, &conflictErr):
		respondJSON(w, http.StatusConflict, map[string]string{"error": conflictErr.Error()})
	default:
		log.Printf("api: internal error: %v", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
