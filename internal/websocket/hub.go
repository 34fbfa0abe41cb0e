package websocket

import (
	"encoding/json"
	"sync"

	"github.com/beforepeak/beforepeak-backend/pkg/logger"
)

// Client is one connected device for a user.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

// Hub fans notifications out to connected clients. A user may hold several
// connections at once (phone and tablet).
type Hub struct {
	clients    map[uint][]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run processes register/unregister events. Call it once from main.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			count := len(h.clients[client.UserID])
			h.mu.Unlock()

			logger.Info("WebSocket client connected", map[string]interface{}{
				"user_id":     client.UserID,
				"connections": count,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			conns := h.clients[client.UserID]
			for i, c := range conns {
				if c == client {
					h.clients[client.UserID] = append(conns[:i], conns[i+1:]...)
					close(client.Send)
					break
				}
			}
			if len(h.clients[client.UserID]) == 0 {
				delete(h.clients, client.UserID)
			}
			h.mu.Unlock()

			logger.Debug("WebSocket client disconnected", map[string]interface{}{
				"user_id": client.UserID,
			})
		}
	}
}

// PushToUser sends a payload to every device the user has connected.
// Delivery is best effort: a slow client gets skipped, never blocks the
// caller.
func (h *Hub) PushToUser(userID uint, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal push payload", err, map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	// Send channels are only closed while the write lock is held, so the
	// sends must stay under the read lock. They never block: a full buffer
	// means the client is skipped.
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients[userID] {
		select {
		case client.Send <- data:
		default:
			logger.Warn("Dropping push to slow websocket client", map[string]interface{}{
				"user_id": userID,
			})
		}
	}
}

// ConnectedUsers returns how many distinct users are connected.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
