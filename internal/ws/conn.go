package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn serializes writes to a websocket connection. gorilla/websocket
// forbids concurrent writers, and presence broadcasts can race with
// message pushes from other request goroutines.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

// NewConn wraps a websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(messageType, data)
}

func (c *Conn) Close() error {
	return c.ws.Close()
}
