package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeurluce/hellocenter-presence/api"
	"github.com/codeurluce/hellocenter-presence/database/models"
	"github.com/codeurluce/hellocenter-presence/session"
	"github.com/codeurluce/hellocenter-presence/ws"
)

// 管理员身份由认证协作方注入到请求头，这里只做归因，不做鉴权本身。
func adminIdentity(c *gin.Context) (uuid, name string, ok bool) {
	uuid = c.GetHeader("X-Admin-UUID")
	name = c.GetHeader("X-Admin-Name")
	if uuid == "" {
		api.RespondError(c, http.StatusUnauthorized, "Missing admin identity")
		return "", "", false
	}
	if name == "" {
		name = uuid
	}
	return uuid, name, true
}

// POST /api/admin/agents/:uuid/pause
// 把 available 状态的坐席强制切到暂停；坐席无在线连接或状态不符时显式拒绝。
func ForcePause(c *gin.Context) {
	agentUUID := c.Param("uuid")
	adminUUID, adminName, ok := adminIdentity(c)
	if !ok {
		return
	}

	var req struct {
		PauseType models.AgentStatus `json:"pause_type"`
	}
	_ = c.ShouldBindJSON(&req) // body 可空，默认 lunch

	pauseType := req.PauseType
	if pauseType == "" {
		pauseType = models.StatusLunch
	}

	if err := session.ForcePause(agentUUID, adminUUID, adminName, pauseType); err != nil {
		api.RespondError(c, api.ErrorStatus(err), err.Error())
		return
	}
	ws.SetLiveStatus(agentUUID, pauseType)
	api.RespondSuccess(c, gin.H{"agent_uuid": agentUUID, "pause_type": pauseType})
}

// POST /api/admin/agents/:uuid/disconnect
// 强制下线：关闭开放区间并断开坐席全部连接；无在线连接时显式拒绝。
func ForceDisconnect(c *gin.Context) {
	agentUUID := c.Param("uuid")
	adminUUID, adminName, ok := adminIdentity(c)
	if !ok {
		return
	}

	if err := session.ForceDisconnect(agentUUID, adminUUID, adminName); err != nil {
		api.RespondError(c, api.ErrorStatus(err), err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{"agent_uuid": agentUUID})
}
