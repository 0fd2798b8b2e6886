package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// WebsocketConn adapts a gorilla connection to the hub's Conn. Reads stay
// with the transport layer; the hub only ever writes.
type WebsocketConn struct {
	ws *websocket.Conn
}

func NewWebsocketConn(ws *websocket.Conn) *WebsocketConn {
	return &WebsocketConn{ws: ws}
}

func (c *WebsocketConn) WriteMessage(data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *WebsocketConn) Close() error {
	return c.ws.Close()
}
