// Package scanfeed pushes committed check-ins to dashboard subscribers over
// WebSocket. It is a fan-out of events that already happened; the admission
// decision never depends on it.
package scanfeed

import (
	"log/slog"
	"sync"
)

// Hub fans events out to connected subscribers.
//
// Broadcast never blocks: a subscriber whose queue is full misses the event
// and the dashboard catches up from the stats endpoint instead.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub constructs a Hub.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		log:     log,
		clients: make(map[*Client]struct{}),
	}
}

// Subscribe registers a client for broadcasts.
func (h *Hub) Subscribe(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unsubscribe removes a client and signals it to stop.
func (h *Hub) Unsubscribe(c *Client) {
	if h == nil || c == nil {
		return
	}
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

// Broadcast delivers v to every subscriber with room in its queue.
func (h *Hub) Broadcast(v any) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.Send <- v:
		default:
			h.log.Warn("scanfeed.drop", "subscriber", c.Name)
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
