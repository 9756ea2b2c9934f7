package chat

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub fans out events to connected clients. Delivery is
// fire-and-forget: a sink that cannot keep up is dropped and the
// remaining sinks are unaffected.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]bool)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = true
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[ws] client connected: %s (total: %d)", c.id, total)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	remaining := len(h.clients)
	h.mu.Unlock()

	log.Printf("[ws] client disconnected: %s (total: %d)", c.id, remaining)
}

// snapshot copies the client set so delivery never holds the lock.
// range中にdeleteが走ると concurrent map iteration and map write になるため。
func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	list := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		list = append(list, c)
	}
	return list
}

// Broadcast delivers an event to every connected client, including
// the originator.
func (h *Hub) Broadcast(event string, data any) {
	h.publish(nil, event, data)
}

// BroadcastExcept delivers an event to every connected client except
// the originator (typing indicators).
func (h *Hub) BroadcastExcept(origin *Client, event string, data any) {
	h.publish(origin, event, data)
}

func (h *Hub) publish(skip *Client, event string, data any) {
	frame, err := marshalEvent(event, data)
	if err != nil {
		log.Printf("[ws] ❌ failed to marshal %s event: %v", event, err)
		return
	}

	for _, c := range h.snapshot() {
		if c == skip {
			continue
		}
		c.enqueue(frame)
	}
}

func marshalEvent(event string, data any) ([]byte, error) {
	env := Envelope{Event: event}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		env.Data = raw
	}
	return json.Marshal(env)
}
