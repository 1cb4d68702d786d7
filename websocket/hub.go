package websocket

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
// *github.com/gofiber/contrib/websocket.Conn satisfies it.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type client struct {
	referenceID string
	conn        Conn
	writeMu     sync.Mutex
}

// Hub fans payment confirmations out to every socket waiting on a reference
// id, typically a consultation id.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		log:     log.Named("websocket"),
	}
}

// Register adds conn as a listener for referenceID and returns the function
// that removes it again.
func (h *Hub) Register(referenceID string, conn Conn) func() {
	c := &client{referenceID: referenceID, conn: conn}

	h.mu.Lock()
	if h.clients[referenceID] == nil {
		h.clients[referenceID] = make(map[*client]struct{})
	}
	h.clients[referenceID][c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("client registered", zap.String("reference_id", referenceID))
	return func() { h.unregister(c) }
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.referenceID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.referenceID)
	}
	h.log.Debug("client unregistered", zap.String("reference_id", c.referenceID))
}

// Publish writes payload to every listener on referenceID and returns how many
// received it. A listener whose write fails is closed and dropped.
func (h *Hub) Publish(referenceID string, payload interface{}) int {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[referenceID]))
	for c := range h.clients[referenceID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, c := range targets {
		c.writeMu.Lock()
		err := c.conn.WriteJSON(payload)
		c.writeMu.Unlock()
		if err != nil {
			h.log.Warn("error sending to client, dropping it", zap.String("reference_id", referenceID), zap.Error(err))
			_ = c.conn.Close()
			h.unregister(c)
			continue
		}
		delivered++
	}
	return delivered
}

// Listeners reports how many sockets wait on referenceID.
func (h *Hub) Listeners(referenceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[referenceID])
}
