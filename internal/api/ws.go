package api

import (
	"log"
	"net/http"

	"github.com/taskboard/taskboard/internal/auth"
	"github.com/taskboard/taskboard/internal/realtime"
)

// handleWebsocket handles GET /ws: upgrades the connection and services
// it until the client disconnects. Each connection lands in the user's
// room immediately; task rooms are joined by client control messages.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("api: websocket upgrade for user %s: %v", userID, err)
		return
	}

	realtime.NewClient(s.hub, conn, userID).Run()
}
