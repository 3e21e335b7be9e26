package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/codeurluce/hellocenter-presence/ws"
)

// EventsWS 提供给管理端仪表盘的状态事件推送通道。
// 该连接仅用于服务端主动推送；客户端可不发送任何消息。
func EventsWS(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		RespondError(c, http.StatusBadRequest, "Require WebSocket upgrade")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	unsafeConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "Failed to upgrade to WebSocket")
		return
	}
	conn := ws.NewSafeConn(unsafeConn)
	defer conn.Close()

	ws.AddSubscriber(conn)
	defer ws.RemoveSubscriber(conn)

	// 阻塞读循环，用于感知断开；客户端发送的消息内容不做处理。
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
