package httpapi

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Hub fans enriched state out to connected WebSocket clients, generalized
// from the teacher's per-region clients map (GChief117-SwarmC2's
// handleWebSocket/broadcastToClients) into a single broadcast stream since
// this module has no region concept — every client receives every frame.
// Each connection is tagged with a uuid so broadcast failures and
// disconnects can be correlated in the logs across a client's lifetime.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]uuid.UUID
}

// Frame is one broadcast unit: a topic tag plus its payload, so clients can
// dispatch on kind without a second round trip.
type Frame struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]uuid.UUID),
	}
}

// ServeHTTP upgrades the connection and keeps it registered until the
// client disconnects or sends a close frame.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("httpapi: websocket upgrade failed")
		return
	}

	clientID := uuid.New()
	h.mu.Lock()
	h.clients[conn] = clientID
	h.mu.Unlock()
	log.Debug().Str("client_id", clientID.String()).Msg("httpapi: websocket client connected")

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
		log.Debug().Str("client_id", clientID.String()).Msg("httpapi: websocket client disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast sends frame to every connected client. A failed write is logged
// and the loop moves on to the next client; the failing client stays
// registered until its own read loop errors and unregisters it.
func (h *Hub) Broadcast(frame Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn, id := range h.clients {
		if err := conn.WriteJSON(frame); err != nil {
			log.Debug().Err(err).Str("client_id", id.String()).Msg("httpapi: broadcast write failed, client will be pruned on next read error")
		}
	}
}

// ClientCount reports how many WebSocket clients are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
