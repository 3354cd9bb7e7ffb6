package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Hub keeps member sets per room address. Rooms have no existence of
// their own: the last leave erases the entry, and broadcasting to an
// absent room is a no-op.
type Hub struct {
	mu    sync.Mutex
	rooms map[Address]*room
}

func NewHub() *Hub { return &Hub{rooms: make(map[Address]*room)} }

// Join is idempotent: adding a member twice to the same room is a
// single membership.
func (h *Hub) Join(addr Address, m member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[addr]
	if !ok {
		r = newRoom()
		h.rooms[addr] = r
	}
	r.add(m)
}

// Leave is idempotent; leaving a room the member never joined changes
// nothing.
func (h *Hub) Leave(addr Address, m member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(addr, m)
}

func (h *Hub) leaveLocked(addr Address, m member) {
	r, ok := h.rooms[addr]
	if !ok {
		return
	}
	r.remove(m)
	if r.empty() {
		delete(h.rooms, addr)
	}
}

// Remove drops the member from every room it belongs to. Safe to call
// more than once for the same member.
func (h *Hub) Remove(m member) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for addr, r := range h.rooms {
		if _, ok := r.conns[m]; ok {
			h.leaveLocked(addr, m)
		}
	}
}

// Count reports the current membership of a room; 0 for absent rooms.
func (h *Hub) Count(addr Address) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[addr]; ok {
		return len(r.conns)
	}
	return 0
}

// Broadcast sends msg to every current member of addr. A member whose
// channel has gone stale is dropped from all rooms and closed, without
// affecting delivery to its siblings.
func (h *Hub) Broadcast(addr Address, msg []byte) {
	h.mu.Lock()
	r, ok := h.rooms[addr]
	if !ok {
		h.mu.Unlock()
		return
	}
	conns := r.snapshot()
	h.mu.Unlock()

	// Do the I/O outside the lock
	var failed []member
	for _, m := range conns {
		if err := m.deliver(msg); err != nil {
			failed = append(failed, m)
		}
	}
	for _, m := range failed {
		zap.L().Debug("ws.stale_member_dropped", zap.Stringer("room", addr))
		h.Remove(m)
		m.kill()
	}
}
