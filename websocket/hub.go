package websocket

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// dedupWindow bounds how many delivered event UIDs each room remembers for
// redelivery suppression.
const dedupWindow = 512

// Client represents a connected WebSocket client
type Client struct {
	Hub    *Hub
	UserID uint
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub manages all work-room WebSocket connections. Each service order has at
// most one room, named sala_trabalho_{orderID}, whose members are the two
// parties of the order.
type Hub struct {
	// Registered clients by user id
	Clients map[uint]*Client

	// Work-room members: order id -> set of user ids
	Rooms map[uint]map[uint]bool

	// Delivered event UIDs per room, for redelivery dedup
	delivered map[uint]map[string]bool
	deliveredOrder map[uint][]string

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Events queued for room fan-out
	Broadcast chan *Event

	// Handlers for client-originated event types
	EventHandlers map[string]EventHandler

	mu sync.RWMutex
}

// Event is a realtime work-room event
type Event struct {
	Type      string      `json:"type"`
	UID       string      `json:"uid,omitempty"`
	OrderID   uint        `json:"ordem_id,omitempty"`
	SenderID  uint        `json:"remetente_id,omitempty"`
	Content   string      `json:"conteudo,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventHandler handles a client-originated event
type EventHandler func(*Client, *Event) error

// RoomName returns the realtime channel name for an order.
func RoomName(orderID uint) string {
	return fmt.Sprintf("sala_trabalho_%d", orderID)
}

// NewHub creates a new work-room hub
func NewHub() *Hub {
	hub := &Hub{
		Clients:        make(map[uint]*Client),
		Rooms:          make(map[uint]map[uint]bool),
		delivered:      make(map[uint]map[string]bool),
		deliveredOrder: make(map[uint][]string),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		Broadcast:      make(chan *Event, 64),
		EventHandlers:  make(map[string]EventHandler),
	}

	hub.EventHandlers["digitando"] = hub.handleTyping
	hub.EventHandlers["ping"] = hub.handlePing

	return hub
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client.UserID] = client
			h.mu.Unlock()
			log.Printf("🔌 Cliente conectado: user=%d", client.UserID)

		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.Clients[client.UserID]; ok {
				for orderID := range h.Rooms {
					delete(h.Rooms[orderID], client.UserID)
				}
				delete(h.Clients, client.UserID)
				close(client.Send)
			}
			h.mu.Unlock()
			log.Printf("🔌 Cliente desconectado: user=%d", client.UserID)

		case event := <-h.Broadcast:
			h.BroadcastToRoom(event.OrderID, event)
		}
	}
}

// JoinRoom adds a user to an order's work room. The caller is responsible
// for verifying that the user is a party of the order.
func (h *Hub) JoinRoom(userID, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Rooms[orderID] == nil {
		h.Rooms[orderID] = make(map[uint]bool)
	}
	h.Rooms[orderID][userID] = true
	log.Printf("👥 user=%d entrou em %s", userID, RoomName(orderID))
}

// LeaveRoom removes a user from an order's work room.
func (h *Hub) LeaveRoom(userID, orderID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.Rooms[orderID] != nil {
		delete(h.Rooms[orderID], userID)
	}
}

// CloseRoom tears the room down. Called when the order reaches a terminal
// state; remaining members get a final status event before removal.
func (h *Hub) CloseRoom(orderID uint, finalStatus string) {
	event := &Event{
		Type:      "status",
		OrderID:   orderID,
		Content:   finalStatus,
		Timestamp: time.Now(),
	}
	h.BroadcastToRoom(orderID, event)

	h.mu.Lock()
	delete(h.Rooms, orderID)
	delete(h.delivered, orderID)
	delete(h.deliveredOrder, orderID)
	h.mu.Unlock()
	log.Printf("🚪 %s encerrada (%s)", RoomName(orderID), finalStatus)
}

// InRoom reports whether the user is currently a member of the room.
func (h *Hub) InRoom(userID, orderID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.Rooms[orderID][userID]
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.Clients[userID]
	return exists
}

// BroadcastToRoom fans an event out to every member of the order's room.
// Events carrying a UID already delivered to the room are dropped, so
// gateway or caller redelivery never duplicates a message.
func (h *Hub) BroadcastToRoom(orderID uint, event *Event) {
	h.mu.Lock()
	if event.UID != "" {
		if h.delivered[orderID][event.UID] {
			h.mu.Unlock()
			return
		}
		if h.delivered[orderID] == nil {
			h.delivered[orderID] = make(map[string]bool)
		}
		h.delivered[orderID][event.UID] = true
		h.deliveredOrder[orderID] = append(h.deliveredOrder[orderID], event.UID)
		if len(h.deliveredOrder[orderID]) > dedupWindow {
			oldest := h.deliveredOrder[orderID][0]
			h.deliveredOrder[orderID] = h.deliveredOrder[orderID][1:]
			delete(h.delivered[orderID], oldest)
		}
	}
	members := make([]uint, 0, len(h.Rooms[orderID]))
	for userID := range h.Rooms[orderID] {
		members = append(members, userID)
	}
	h.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Erro ao serializar evento: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range members {
		client, exists := h.Clients[userID]
		if !exists {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("⚠️ Buffer de envio cheio: user=%d", userID)
		}
	}
}

// SendToUser sends an event to a single connected user. The lock is held
// across the send: the unregister path closes Send under the write lock, so
// releasing early would allow a send on a closed channel.
func (h *Hub) SendToUser(userID uint, event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ Erro ao serializar evento: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.Clients[userID]
	if !exists {
		return
	}

	select {
	case client.Send <- data:
	default:
		log.Printf("⚠️ Buffer de envio cheio: user=%d", userID)
	}
}

// handleTyping relays typing indicators to the other room member.
func (h *Hub) handleTyping(client *Client, event *Event) error {
	if !h.InRoom(client.UserID, event.OrderID) {
		return fmt.Errorf("user %d fora da sala %d", client.UserID, event.OrderID)
	}
	h.mu.RLock()
	members := h.Rooms[event.OrderID]
	peers := make([]uint, 0, len(members))
	for userID := range members {
		if userID != client.UserID {
			peers = append(peers, userID)
		}
	}
	h.mu.RUnlock()

	for _, userID := range peers {
		h.SendToUser(userID, event)
	}
	return nil
}

// handlePing answers connection health checks.
func (h *Hub) handlePing(client *Client, event *Event) error {
	pong := &Event{Type: "pong", Timestamp: time.Now()}
	data, err := json.Marshal(pong)
	if err != nil {
		return err
	}
	select {
	case client.Send <- data:
	default:
	}
	return nil
}
