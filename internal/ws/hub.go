package ws

import (
	"sync"
)

// Hub keeps client sets per room code. It is the broadcast group: every
// session joined to a room receives every message published to it,
// including the publisher.
type Hub struct {
	rooms sync.Map // room code -> *room
}

func NewHub() *Hub { return &Hub{} }

func (h *Hub) Broadcast(code string, msg []byte) {
	if v, ok := h.rooms.Load(code); ok {
		v.(*room).broadcast(msg)
	}
}

func (h *Hub) Join(code string, c *clientConn) {
	r, _ := h.rooms.LoadOrStore(code, newRoom())
	r.(*room).add(c)
}

func (h *Hub) Leave(code string, c *clientConn) {
	if v, ok := h.rooms.Load(code); ok {
		v.(*room).remove(c)
	}
}

// Count reports the number of joined sessions; the board sweeper uses it to
// decide whether a room's state may be evicted.
func (h *Hub) Count(code string) int {
	if v, ok := h.rooms.Load(code); ok {
		return v.(*room).size()
	}
	return 0
}
