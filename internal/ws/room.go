package ws

// member is one live connection from the room's point of view. deliver
// must be safe to call from any goroutine; kill tears the underlying
// transport down so the owner's read loop notices.
type member interface {
	deliver(msg []byte) error
	kill()
}

type room struct {
	conns map[member]struct{}
}

func newRoom() *room { return &room{conns: map[member]struct{}{}} }

func (r *room) add(m member)    { r.conns[m] = struct{}{} }
func (r *room) remove(m member) { delete(r.conns, m) }
func (r *room) empty() bool     { return len(r.conns) == 0 }

// snapshot copies the current member set so the caller can do I/O
// without holding the hub lock.
func (r *room) snapshot() []member {
	out := make([]member, 0, len(r.conns))
	for m := range r.conns {
		out = append(out, m)
	}
	return out
}
