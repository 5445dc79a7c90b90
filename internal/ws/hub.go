// Package ws serves live round events to spectator WebSocket clients. The
// hub holds one send channel per client and drops clients that cannot keep
// up rather than blocking the round.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/spaghetti-software-inc/openfiggie/internal/game"
)

const (
	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256

	// writeWait bounds a single client write.
	writeWait = 10 * time.Second
)

// client represents a single spectator connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages the set of connected spectators and broadcasts round events
// to all of them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
	log     *logrus.Entry
}

// NewHub creates an empty hub.
func NewHub(log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.New()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     log.WithField("component", "ws"),
	}
}

// ClientCount returns the number of connected spectators.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast serializes ev and queues it to every connected client. A client
// whose buffer is full is disconnected.
func (h *Hub) Broadcast(ev game.GameEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Warn("drop unmarshalable event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Warn("dropping slow spectator")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Shutdown disconnects every client and rejects future connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Handler accepts spectator WebSocket connections.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			h.log.WithError(err).Warn("websocket accept failed")
			return
		}

		c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			conn.Close(websocket.StatusGoingAway, "shutting down")
			return
		}
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		h.log.Debug("spectator connected")

		go h.writePump(c)
		h.readPump(r.Context(), c)
	})
}

// writePump drains the client's send channel onto the wire. It exits when
// the channel is closed by Broadcast, Shutdown or readPump.
func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		err := c.conn.Write(ctx, websocket.MessageText, payload)
		cancel()
		if err != nil {
			break
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}

// readPump discards inbound frames; spectators are read-only. It returns
// when the peer disconnects and unregisters the client.
func (h *Hub) readPump(ctx context.Context, c *client) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			break
		}
	}

	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	h.log.Debug("spectator disconnected")
}
