package websocket

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// attachClient wires a client without a real connection; events land in the
// returned channel.
func attachClient(h *Hub, userID uint) chan []byte {
	send := make(chan []byte, 16)
	h.mu.Lock()
	h.Clients[userID] = &Client{Hub: h, UserID: userID, Send: send}
	h.mu.Unlock()
	return send
}

func receiveEvent(t *testing.T, ch chan []byte) *Event {
	t.Helper()
	select {
	case raw := <-ch:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return &event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return nil
	}
}

func TestRoomName(t *testing.T) {
	assert.Equal(t, "sala_trabalho_42", RoomName(42))
}

func TestJoinAndLeaveRoom(t *testing.T) {
	hub := NewHub()

	hub.JoinRoom(1, 10)
	hub.JoinRoom(2, 10)
	assert.True(t, hub.InRoom(1, 10))
	assert.True(t, hub.InRoom(2, 10))
	assert.False(t, hub.InRoom(3, 10))

	hub.LeaveRoom(1, 10)
	assert.False(t, hub.InRoom(1, 10))
	assert.True(t, hub.InRoom(2, 10))
}

func TestBroadcastToRoomReachesAllMembers(t *testing.T) {
	hub := NewHub()
	contractor := attachClient(hub, 1)
	worker := attachClient(hub, 2)
	outsider := attachClient(hub, 3)

	hub.JoinRoom(1, 10)
	hub.JoinRoom(2, 10)

	hub.BroadcastToRoom(10, &Event{
		Type:      "mensagem",
		UID:       "uid-1",
		OrderID:   10,
		SenderID:  1,
		Content:   "bom dia",
		Timestamp: time.Now(),
	})

	for _, ch := range []chan []byte{contractor, worker} {
		event := receiveEvent(t, ch)
		assert.Equal(t, "mensagem", event.Type)
		assert.Equal(t, "bom dia", event.Content)
		assert.Equal(t, uint(1), event.SenderID)
	}
	assert.Empty(t, outsider, "non-members must not receive room events")
}

func TestBroadcastDropsRedeliveredUID(t *testing.T) {
	hub := NewHub()
	worker := attachClient(hub, 2)
	hub.JoinRoom(2, 10)

	event := &Event{Type: "mensagem", UID: "dup-uid", OrderID: 10, Content: "oi"}
	hub.BroadcastToRoom(10, event)
	hub.BroadcastToRoom(10, event)
	hub.BroadcastToRoom(10, event)

	receiveEvent(t, worker)
	assert.Empty(t, worker, "redelivered UID must be suppressed")
}

func TestBroadcastWithoutUIDIsNotDeduped(t *testing.T) {
	hub := NewHub()
	worker := attachClient(hub, 2)
	hub.JoinRoom(2, 10)

	// Status and typing events carry no UID and always go through
	hub.BroadcastToRoom(10, &Event{Type: "digitando", OrderID: 10})
	hub.BroadcastToRoom(10, &Event{Type: "digitando", OrderID: 10})

	receiveEvent(t, worker)
	receiveEvent(t, worker)
}

func TestDedupWindowEviction(t *testing.T) {
	hub := NewHub()
	worker := attachClient(hub, 2)
	hub.JoinRoom(2, 10)

	first := &Event{Type: "mensagem", UID: "uid-0", OrderID: 10}
	hub.BroadcastToRoom(10, first)
	receiveEvent(t, worker)

	// Push the first UID out of the window
	for i := 1; i <= dedupWindow; i++ {
		hub.BroadcastToRoom(10, &Event{Type: "mensagem", UID: fmt.Sprintf("uid-%d", i), OrderID: 10})
		receiveEvent(t, worker)
	}

	hub.BroadcastToRoom(10, first)
	event := receiveEvent(t, worker)
	assert.Equal(t, "uid-0", event.UID, "evicted UID may be delivered again")
}

func TestCloseRoom(t *testing.T) {
	hub := NewHub()
	contractor := attachClient(hub, 1)
	worker := attachClient(hub, 2)
	hub.JoinRoom(1, 10)
	hub.JoinRoom(2, 10)

	hub.CloseRoom(10, "concluida")

	for _, ch := range []chan []byte{contractor, worker} {
		event := receiveEvent(t, ch)
		assert.Equal(t, "status", event.Type)
		assert.Equal(t, "concluida", event.Content)
	}

	assert.False(t, hub.InRoom(1, 10))
	assert.False(t, hub.InRoom(2, 10))

	// Dedup state is gone with the room
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	assert.NotContains(t, hub.delivered, uint(10))
	assert.NotContains(t, hub.deliveredOrder, uint(10))
}

func TestSendToUser(t *testing.T) {
	hub := NewHub()
	worker := attachClient(hub, 2)

	hub.SendToUser(2, &Event{Type: "proposta", OrderID: 5, SenderID: 1})
	event := receiveEvent(t, worker)
	assert.Equal(t, "proposta", event.Type)
	assert.Equal(t, uint(5), event.OrderID)

	// Sending to a disconnected user is a no-op
	hub.SendToUser(99, &Event{Type: "proposta"})
	assert.True(t, hub.IsUserConnected(2))
	assert.False(t, hub.IsUserConnected(99))
}

// Unregistering closes the client's Send channel under the hub lock, so a
// concurrent SendToUser must never land on the closed channel. Run with
// -race.
func TestSendToUserWhileDisconnecting(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			client := &Client{Hub: hub, UserID: 7, Send: make(chan []byte, 64)}
			hub.Register <- client
			hub.Unregister <- client
		}
	}()

	for {
		select {
		case <-done:
			return
		default:
			hub.SendToUser(7, &Event{Type: "proposta", OrderID: 1})
		}
	}
}
