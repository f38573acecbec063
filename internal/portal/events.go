package portal

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/user/release-portal/internal/logger"
	"github.com/user/release-portal/pkg/portal"
)

const writeWait = 10 * time.Second

// Hub fans change events out to every connected websocket subscriber.
// Connections that fail a write are dropped.
type Hub struct {
	log   zerolog.Logger
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{
		log:   logger.Component("events"),
		conns: make(map[*websocket.Conn]struct{}),
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = struct{}{}
	h.log.Debug().Int("subscribers", len(h.conns)).Msg("event subscriber connected")
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	_ = conn.Close()
}

func (h *Hub) Broadcast(event portal.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			h.log.Debug().Err(err).Msg("dropping event subscriber")
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = make(map[*websocket.Conn]struct{})
}
