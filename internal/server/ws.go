package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dicehouse/dicehouse-server/internal/events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The feed is public read-only data; origin checks add nothing.
		return true
	},
}

// Hub broadcasts engine notifications to connected WebSocket observers.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*wsClient]bool
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]bool),
	}
}

// Run pumps events from feed to every connected client until ctx is done
// or the feed closes.
func (h *Hub) Run(ctx context.Context, feed <-chan events.Event) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case evt, ok := <-feed:
			if !ok {
				h.closeAll()
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				h.logger.Error("marshal event", zap.Error(err))
				continue
			}
			h.broadcast(payload)
		}
	}
}

func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop it rather than stall the feed.
			delete(h.clients, client)
			close(client.send)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[*wsClient]bool)
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// HandleWS upgrades the request and streams events until the peer leaves.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.mu.Lock()
	if h.closed {
		// The feed already stopped; a client registered now would hang on
		// a channel nobody closes.
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[client] = true
	h.mu.Unlock()

	go client.writePump()
	go client.readPump(h)
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump discards client input; the feed is one-way. It exists to detect
// the peer closing the connection.
func (c *wsClient) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
