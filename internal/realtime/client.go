package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// pingPeriod is how often pings go out. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound control messages.
	maxMessageSize = 1024

	// sendBufferSize bounds the per-connection outbound queue.
	sendBufferSize = 64
)

// controlMessage is what a connected client sends to manage its task
// room subscriptions.
type controlMessage struct {
	Action string `json:"action"` // "subscribe_task" or "unsubscribe_task"
	TaskID string `json:"task_id"`
}

// Client is one websocket connection for one authenticated user.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	userID    string
	send      chan []byte
	closeOnce sync.Once
}

// NewClient wraps a websocket connection for the given user.
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBufferSize),
	}
}

// UserID returns the id of the connection's authenticated user.
func (c *Client) UserID() string {
	return c.userID
}

// Run registers the client with the hub and services the connection
// until it closes. It blocks until the read side ends.
func (c *Client) Run() {
	c.hub.Register(c)
	go c.writePump()
	c.readPump()
}

// readPump consumes subscribe/unsubscribe control messages until the
// connection drops, then unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("realtime: connection for user %s: %v", c.userID, err)
			}
			return
		}

		var msg controlMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("realtime: bad control message from user %s: %v", c.userID, err)
			continue
		}

		// Task-room subscription is client-driven; read access control
		// lives on the REST path.
		switch msg.Action {
		case "subscribe_task":
			if msg.TaskID != "" {
				c.hub.Subscribe(c, "task:"+msg.TaskID)
			}
		case "unsubscribe_task":
			if msg.TaskID != "" {
				c.hub.Unsubscribe(c, "task:"+msg.TaskID)
			}
		}
	}
}

// writePump forwards queued messages to the peer and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
