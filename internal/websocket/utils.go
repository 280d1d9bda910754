package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Conn serialises writes on a gorilla connection, which allows only one
// concurrent writer.
type Conn struct {
	*websocket.Conn
	mu sync.Mutex
}

// Wrap returns a Conn around c.
func Wrap(c *websocket.Conn) *Conn {
	return &Conn{Conn: c}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{Event: EventError, Error: errMsg})
}

// WriteClose sends a close frame with the given code and reason.
func (c *Conn) WriteClose(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.SetWriteDeadline(time.Now().Add(writeWait))
	return c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	_ = c.SetReadDeadline(time.Now().Add(readWait))
	return c.Conn.ReadJSON(v)
}
