package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	default:
		t.Fatal("no message queued")
		return Message{}
	}
}

func TestRegisterJoinsUserRoom(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "u1")
	hub.Register(c)

	require.Equal(t, 1, hub.RoomSize("user:u1"))

	hub.Broadcast("user:u1", "notification_created", map[string]string{"id": "n1"})
	msg := receive(t, c)
	require.Equal(t, "notification_created", msg.Event)
	require.Equal(t, "user:u1", msg.Room)
}

func TestMultipleConnectionsPerUser(t *testing.T) {
	hub := NewHub()
	first := NewClient(hub, nil, "u1")
	second := NewClient(hub, nil, "u1")
	hub.Register(first)
	hub.Register(second)

	require.Equal(t, 2, hub.RoomSize("user:u1"))

	hub.Broadcast("user:u1", "notification_created", nil)
	receive(t, first)
	receive(t, second)

	// Closing one connection leaves the other subscribed.
	hub.Unregister(first)
	require.Equal(t, 1, hub.RoomSize("user:u1"))

	hub.Broadcast("user:u1", "notification_created", nil)
	receive(t, second)
}

func TestTaskRoomSubscription(t *testing.T) {
	hub := NewHub()
	member := NewClient(hub, nil, "u1")
	outsider := NewClient(hub, nil, "u2")
	hub.Register(member)
	hub.Register(outsider)

	hub.Subscribe(member, "task:t1")
	hub.Broadcast("task:t1", "task_updated", nil)

	receive(t, member)
	select {
	case <-outsider.send:
		t.Fatal("outsider received a task-room message")
	default:
	}

	hub.Unsubscribe(member, "task:t1")
	require.Zero(t, hub.RoomSize("task:t1"))
}

func TestUnregisterPrunesAllRooms(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "u1")
	hub.Register(c)
	hub.Subscribe(c, "task:t1")
	hub.Subscribe(c, "task:t2")

	hub.Unregister(c)

	require.Zero(t, hub.RoomSize("user:u1"))
	require.Zero(t, hub.RoomSize("task:t1"))
	require.Zero(t, hub.RoomSize("task:t2"))

	// The send queue is closed exactly once; a second unregister is safe.
	_, open := <-c.send
	require.False(t, open)
	hub.Unregister(c)
}

func TestBroadcastToEmptyRoom(t *testing.T) {
	hub := NewHub()
	hub.Broadcast("task:nobody", "task_updated", nil)
	require.Zero(t, hub.RoomSize("task:nobody"))
}

func TestSlowConnectionDropsMessage(t *testing.T) {
	hub := NewHub()
	c := NewClient(hub, nil, "u1")
	hub.Register(c)

	for i := 0; i < sendBufferSize+5; i++ {
		hub.Broadcast("user:u1", "notification_created", i)
	}

	// The queue holds at most sendBufferSize messages; extras were dropped
	// rather than blocking the broadcaster.
	require.Len(t, c.send, sendBufferSize)
}
