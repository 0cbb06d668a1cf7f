package cart

import (
	"sync"

	"github.com/gorilla/websocket"

	"rentgear/internal/domain"
)

// Hub fans cart change events out to the websocket clients watching a
// cart key. One key can have several connections (multiple open tabs).
type Hub struct {
	mutex       sync.RWMutex
	connections map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]map[*websocket.Conn]bool),
	}
}

type cartEvent struct {
	Type string      `json:"type"`
	Cart domain.Cart `json:"cart"`
}

func (h *Hub) Register(cartID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if h.connections[cartID] == nil {
		h.connections[cartID] = make(map[*websocket.Conn]bool)
	}
	h.connections[cartID][conn] = true
}

func (h *Hub) Unregister(cartID string, conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conns, exists := h.connections[cartID]; exists {
		if conns[conn] {
			_ = conn.Close()
			delete(conns, conn)
		}
		if len(conns) == 0 {
			delete(h.connections, cartID)
		}
	}
}

// Broadcast pushes the updated cart to every connection on cartID.
// Connections that fail to write are dropped.
func (h *Hub) Broadcast(cartID string, cart domain.Cart) {
	h.mutex.RLock()
	conns := make([]*websocket.Conn, 0, len(h.connections[cartID]))
	for conn := range h.connections[cartID] {
		conns = append(conns, conn)
	}
	h.mutex.RUnlock()

	event := cartEvent{Type: "cart_updated", Cart: cart}
	for _, conn := range conns {
		if err := conn.WriteJSON(event); err != nil {
			h.Unregister(cartID, conn)
		}
	}
}

func (h *Hub) ConnectionCount(cartID string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.connections[cartID])
}

func (h *Hub) Close() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for cartID, conns := range h.connections {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.connections, cartID)
	}
}
