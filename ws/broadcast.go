package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Broadcast 向所有管理端订阅连接广播事件信封。投递尽力而为：
// 写失败的连接直接移除，订阅者重连后自行全量拉取当前状态。
func Broadcast(event string, data any) {
	envelope := map[string]any{
		"event":     event,
		"data":      data,
		"timestamp": time.Now().UTC(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return
	}

	mu.RLock()
	conns := make([]*SafeConn, 0, len(subscribers))
	for conn := range subscribers {
		conns = append(conns, conn)
	}
	mu.RUnlock()

	for _, conn := range conns {
		if conn.WriteMessage(websocket.TextMessage, payload) != nil {
			RemoveSubscriber(conn)
		}
	}
}
