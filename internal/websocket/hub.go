// Package websocket pushes inventory change notifications to open pages.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Message types.
const (
	TypeInventoryChanged = "inventory_changed"
	TypeSyncFailed       = "sync_failed"
)

// Message tells pages that their rendering is stale.
type Message struct {
	Type    string `json:"type"`
	Version uint64 `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Hub maintains the set of connected pages and broadcasts messages.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients. Clients whose buffer
// is full miss the message.
func (h *Hub) Broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

// InventoryChanged broadcasts a new store version. It matches the
// inventory.Store change listener signature.
func (h *Hub) InventoryChanged(version uint64) {
	h.Broadcast(Message{Type: TypeInventoryChanged, Version: version})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
