// Package realtime holds the push side of the API: a room-based hub and
// the websocket connections subscribed to it. The hub is an injected
// registry created at server start, not ambient state; it is
// process-local, so room membership does not span multiple instances.
package realtime

import (
	"encoding/json"
	"log"
	"sync"
)

// Message is the wire shape of every server-emitted push event.
type Message struct {
	Event   string      `json:"event"`
	Room    string      `json:"room"`
	Payload interface{} `json:"payload"`
}

// Hub tracks which connections belong to which rooms and fans broadcast
// messages out to them. A user may hold multiple simultaneous
// connections; each is an independent room member, so closing one tab
// leaves the others subscribed.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]bool)}
}

// Register adds a connection and places it into its user room.
func (h *Hub) Register(c *Client) {
	h.Subscribe(c, "user:"+c.userID)
}

// Unregister removes a connection from every room it joined and closes
// its outbound queue. Rooms left empty are pruned.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	for room, members := range h.rooms {
		if members[c] {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	c.closeOnce.Do(func() { close(c.send) })
}

// Subscribe adds a connection to a room.
func (h *Hub) Subscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[room] = members
	}
	members[c] = true
}

// Unsubscribe removes a connection from a room, pruning the room if it
// empties.
func (h *Hub) Unsubscribe(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends an event to every connection in a room. A connection
// whose outbound queue is full drops the message; a dropped push is
// recovered by the client's own re-fetch, never retried here.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	data, err := json.Marshal(Message{Event: event, Room: room, Payload: payload})
	if err != nil {
		log.Printf("realtime: marshaling %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.rooms[room] {
		select {
		case c.send <- data:
		default:
			log.Printf("realtime: dropping %s event for slow connection of user %s", event, c.userID)
		}
	}
}

// RoomSize returns the number of connections currently in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
