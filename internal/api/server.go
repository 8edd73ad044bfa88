// Package api wires the engines to the REST and websocket surface.
// Handlers translate HTTP to engine calls and typed errors back to
// status codes; invariants live in the engines, not here.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/comment"
	"github.com/taskboard/taskboard/internal/model"
	"github.com/taskboard/taskboard/internal/notify"
	"github.com/taskboard/taskboard/internal/realtime"
	"github.com/taskboard/taskboard/internal/store"
	"github.com/taskboard/taskboard/internal/task"
)

// Server holds the handler dependencies.
type Server struct {
	cfg      *model.AppConfig
	store    store.Store
	tasks    *task.Engine
	comments *comment.Engine
	notices  *notify.Fanout
	auth     *auth.Service
	issuer   *auth.TokenIssuer
	hub      *realtime.Hub
	upgrader websocket.Upgrader
}

// NewServer creates the API server around its collaborators.
func NewServer(
	cfg *model.AppConfig,
	s store.Store,
	tasks *task.Engine,
	comments *comment.Engine,
	notices *notify.Fanout,
	authSvc *auth.Service,
	issuer *auth.TokenIssuer,
	hub *realtime.Hub,
) *Server {
	return &Server{
		cfg:      cfg,
		store:    s,
		tasks:    tasks,
		comments: comments,
		notices:  notices,
		auth:     authSvc,
		issuer:   issuer,
		hub:      hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin checks belong to the deployment's proxy layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(auth.Middleware(s.issuer))

	authed.HandleFunc("/tasks", s.handleListTasks).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleCreateTask).Methods(http.MethodPost)
	authed.HandleFunc("/tasks/bulk-delete", s.handleBulkDeleteTasks).Methods(http.MethodPost, http.MethodDelete)
	authed.HandleFunc("/tasks/{taskID}", s.handleGetTask).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/{taskID}", s.handleUpdateTask).Methods(http.MethodPatch)
	authed.HandleFunc("/tasks/{taskID}", s.handleDeleteTask).Methods(http.MethodDelete)
	authed.HandleFunc("/tasks/{taskID}/comments", s.handleAddComment).Methods(http.MethodPost)

	authed.HandleFunc("/comments/{commentID}", s.handleEditComment).Methods(http.MethodPatch)
	authed.HandleFunc("/comments/{commentID}", s.handleDeleteComment).Methods(http.MethodDelete)

	authed.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	authed.HandleFunc("/notifications/mark_all_read", s.handleMarkAllRead).Methods(http.MethodPatch)
	authed.HandleFunc("/notifications/{notificationID}/read", s.handleMarkRead).Methods(http.MethodPatch)

	authed.HandleFunc("/users/me", s.handleGetMe).Methods(http.MethodGet)
	authed.HandleFunc("/users/me", s.handleUpdateMe).Methods(http.MethodPatch)
	authed.HandleFunc("/users/me/password", s.handleChangePassword).Methods(http.MethodPost)

	authed.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	authed.HandleFunc("/ws", s.handleWebsocket).Methods(http.MethodGet)

	return r
}
