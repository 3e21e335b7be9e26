package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var connSeq atomic.Int64

// SafeConn 带写锁与进程内自增 ID 的 WebSocket 连接。
// gorilla/websocket 不允许并发写，广播与定向通知都经过这里串行化。
type SafeConn struct {
	ID int64

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewSafeConn(conn *websocket.Conn) *SafeConn {
	return &SafeConn{
		ID:   connSeq.Add(1),
		conn: conn,
	}
}

func (c *SafeConn) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *SafeConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

func (c *SafeConn) ReadMessage() (int, []byte, error) {
	return c.conn.ReadMessage()
}

func (c *SafeConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *SafeConn) Close() error {
	return c.conn.Close()
}
