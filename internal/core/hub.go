package core

import "sync"

// Hub fans new messages out to every connected push subscriber.
type Hub struct {
	mu   sync.Mutex
	room *Room
}

// NewHub creates a hub with a single feed room.
func NewHub() *Hub {
	return &Hub{room: NewRoom("feed")}
}

// RegisterClient subscribes c to new message events.
func (h *Hub) RegisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.room.AddClient(c)
}

// UnregisterClient removes c. Its event channel is left open; the caller owns it.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.room.RemoveClient(c)
}

// Publish broadcasts msg and returns how many subscribers missed it.
func (h *Hub) Publish(msg Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.room.Broadcast(&Event{Kind: EventNewMessage, Message: msg})
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.room.Len()
}
