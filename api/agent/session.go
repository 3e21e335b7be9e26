package agent

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/codeurluce/hellocenter-presence/api"
	"github.com/codeurluce/hellocenter-presence/database/models"
	"github.com/codeurluce/hellocenter-presence/session"
	"github.com/codeurluce/hellocenter-presence/ws"
)

// ReadWait 连接级存活阈值：超过该时间没有收到任何消息即认为连接已死。
// 由服务启动时按配置覆盖。
var ReadWait = 60 * time.Second

// SessionWS 坐席会话通道。
// 坐席身份由认证协作方注入（查询参数 agent / name），这里只做会话语义。
func SessionWS(c *gin.Context) {
	agentUUID := c.Query("agent")
	if agentUUID == "" {
		api.RespondError(c, http.StatusBadRequest, "Missing agent identity")
		return
	}

	if !websocket.IsWebSocketUpgrade(c.Request) {
		api.RespondError(c, http.StatusBadRequest, "Require WebSocket upgrade")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	unsafeConn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		api.RespondError(c, http.StatusBadRequest, "Failed to upgrade to WebSocket")
		return
	}
	conn := ws.NewSafeConn(unsafeConn)
	defer conn.Close()

	ws.AddAgentConn(agentUUID, conn)
	defer func() {
		remaining := ws.RemoveAgentConn(agentUUID, conn)
		if remaining > 0 {
			return // 另一标签页/设备仍在线，保持会话
		}
		if err := session.Disconnect(agentUUID, session.ReasonClient); err != nil {
			log.Printf("agent.SessionWS disconnect failed: agent=%s err=%v", agentUUID, err)
		}
		ws.SetLiveStatus(agentUUID, models.StatusOffline)
	}()

	// 恢复最近已知状态，让刷新页面的坐席原地续班而不是回到固定初始态
	status, active, err := session.RestoreStatus(agentUUID)
	if err != nil {
		log.Printf("agent.SessionWS restore failed: agent=%s err=%v", agentUUID, err)
	} else {
		if active {
			ws.SetLiveStatus(agentUUID, status)
		}
		_ = conn.WriteJSON(gin.H{"event": "status_restored", "status": status, "active": active})
	}

	for {
		conn.SetReadDeadline(time.Now().Add(ReadWait))

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("agent.SessionWS connection error: agent=%s err=%v", agentUUID, err)
			}
			break // 任何读错误（包括超时）都意味着连接已断开，退出循环
		}
		processMessage(conn, message, agentUUID)
	}
}

func processMessage(conn *ws.SafeConn, message []byte, agentUUID string) {
	var msg struct {
		Type        string             `json:"type"`
		Status      models.AgentStatus `json:"status"`
		PauseReason string             `json:"pause_reason"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		conn.WriteJSON(gin.H{"status": "error", "error": "Invalid JSON"})
		return
	}

	switch msg.Type {
	case "", "heartbeat":
		ws.MarkSeen(agentUUID)
		if err := session.Heartbeat(agentUUID); err != nil {
			log.Printf("agent.SessionWS heartbeat failed: agent=%s err=%v", agentUUID, err)
		}
	case "status_change":
		itv, err := session.StartOrChange(agentUUID, msg.Status, msg.PauseReason)
		if err != nil {
			conn.WriteJSON(gin.H{"status": "error", "error": err.Error()})
			return
		}
		ws.SetLiveStatus(agentUUID, itv.Status)
		conn.WriteJSON(gin.H{"event": "status_changed", "status": itv.Status, "interval_id": itv.ID})
	default:
		conn.WriteJSON(gin.H{"status": "error", "error": "Unknown message type"})
	}
}
