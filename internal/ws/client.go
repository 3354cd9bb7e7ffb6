package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ordercastgo/internal/auth"
)

// clientConn is one authenticated live connection. Writes are
// serialized by the mutex; gorilla allows only one concurrent writer.
type clientConn struct {
	id        uuid.UUID
	principal auth.Principal
	rawConn   *websocket.Conn
	mu        sync.Mutex
	closeOnce sync.Once
}

func newClientConn(raw *websocket.Conn, p auth.Principal) *clientConn {
	return &clientConn{id: uuid.New(), principal: p, rawConn: raw}
}

func (c *clientConn) deliver(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(websocket.TextMessage, data)
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

func (c *clientConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// kill closes the socket; the reader loop then unblocks and runs the
// room cleanup. Idempotent.
func (c *clientConn) kill() {
	c.closeOnce.Do(func() { _ = c.rawConn.Close() })
}
