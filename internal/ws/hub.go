package ws

import (
	"context"
	"sync"

	"arena_client/internal/logger"
	"arena_client/internal/session"
)

// StatusSource - where the hub takes session updates from
type StatusSource interface {
	Subscribe() (<-chan session.Status, func())
}

// Hub fans session status out to every connected UI client
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	last    []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds c and replays the latest status to it
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	last := h.last
	h.mu.Unlock()

	if last != nil {
		c.send(last)
	}
	logger.Debug("ws client registered", "identity", c.Identity, "clients", h.Count())
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.close()
		logger.Debug("ws client unregistered", "identity", c.Identity)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues msg for every client; clients with a full buffer skip it
func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.send(msg)
	}
}

// Run forwards status updates until ctx is done or the source closes
func (h *Hub) Run(ctx context.Context, src StatusSource) {
	updates, unsubscribe := src.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case st, ok := <-updates:
			if !ok {
				return
			}
			msg := encode(MsgStatus, st)
			h.mu.Lock()
			h.last = msg
			h.mu.Unlock()
			h.Broadcast(msg)
		}
	}
}
