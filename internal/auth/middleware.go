package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey int

const userIDKey contextKey = iota

// UserID returns the authenticated user id stored in the request
// context, or "" if the request never passed the middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// WithUserID returns a context carrying the given user id. Exposed for
// tests and for the websocket upgrade path.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// Middleware authenticates requests with a Bearer session token and
// injects the user id into the request context. The websocket endpoint
// also accepts the token in a query parameter, since browser websocket
// clients cannot set headers.
func Middleware(issuer *TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ""
			if h := r.Header.Get("Authorization"); h != "" {
				tokenString = strings.TrimPrefix(h, "Bearer ")
			} else if t := r.URL.Query().Get("token"); t != "" {
				tokenString = t
			}
			if tokenString == "" {
				unauthorized(w, "authorization required")
				return
			}

			userID, err := issuer.Validate(tokenString)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
