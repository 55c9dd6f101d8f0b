package server

import (
	"context"
	"sync"
	"time"

	"github.com/franckalain/nutritrack/internal/events"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// client is one websocket connection. gorilla/websocket allows a single
// concurrent writer, so every write goes through mu.
type client struct {
	id     string
	userID string
	conn   *websocket.Conn
	mu     sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks live connections per user and pushes events to them.
// It implements events.Publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[string]map[*client]struct{})}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.clients[c.userID] == nil {
		h.clients[c.userID] = make(map[*client]struct{})
	}
	h.clients[c.userID][c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if set := h.clients[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.clients, c.userID)
		}
	}
	h.mu.Unlock()
}

// Connections reports how many connections userID has open
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Publish sends ev to every connection of ev.UserID. A failed write only
// drops that connection's copy.
func (h *Hub) Publish(_ context.Context, ev events.Event) error {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[ev.UserID]))
	for c := range h.clients[ev.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	msg := message{Type: "event", Data: ev}
	for _, c := range targets {
		c.writeJSON(msg)
	}
	return nil
}

// Close drops every connection
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for c := range set {
			c.conn.Close()
		}
	}
	h.clients = make(map[string]map[*client]struct{})
	return nil
}
