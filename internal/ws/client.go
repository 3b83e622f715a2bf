package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type clientConn struct {
	rawConn *websocket.Conn
	mu      sync.Mutex
}

func (c *clientConn) write(mt int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteMessage(mt, data) // Text/Binary only
}

func (c *clientConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.rawConn.WriteJSON(v)
}

// ping may run concurrently with write/writeJSON; gorilla allows concurrent
// WriteControl.
func (c *clientConn) ping() error {
	return c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// closeWith sends a close frame with the given status code before tearing
// the connection down. Connection rejections use the dedicated 4004 code so
// clients can tell them apart from ordinary closes.
func (c *clientConn) closeWith(code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.rawConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	_ = c.rawConn.Close()
}
