package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/RunFleet/RunFleet/internal/logger"
	"github.com/RunFleet/RunFleet/pkg/runner"
)

// outcomeEvent is the wire shape of one streamed outcome.
type outcomeEvent struct {
	Type    string         `json:"type"`
	Success bool           `json:"success"`
	Outcome runner.Outcome `json:"outcome"`
}

// Hub fans per-endpoint outcomes out to WebSocket subscribers. Outcomes
// arrive in completion order from concurrent workers; the write mutex
// serializes them onto each connection.
type Hub struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
	logger   *logger.Logger
}

// NewHub creates a hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			HandshakeTimeout: 10 * time.Second,
			CheckOrigin:      func(*http.Request) bool { return true },
		},
		logger: log,
	}
}

// HandleWS upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) HandleWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	// Reads are discarded; the socket is one-way. The read loop only exists
	// to detect the peer closing.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// BroadcastOutcome sends one outcome to all subscribers. Intended as a
// runner OutcomeCallback.
func (h *Hub) BroadcastOutcome(o runner.Outcome) {
	event := outcomeEvent{
		Type:    "outcome",
		Success: o.Success,
		Outcome: o,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		if err := conn.WriteJSON(event); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// ClientCount returns the number of registered subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[conn] {
		conn.Close()
		delete(h.clients, conn)
	}
}

// Close closes all registered connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
