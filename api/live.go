package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
	"github.com/codeurluce/hellocenter-presence/ws"
)

type liveAgent struct {
	AgentUUID       string             `json:"agent_uuid"`
	Status          models.AgentStatus `json:"status"`
	Since           *models.LocalTime  `json:"since,omitempty"`
	LastHeartbeat   *models.LocalTime  `json:"last_heartbeat,omitempty"`
	LiveConnections int                `json:"live_connections"`
}

// GET /api/agents
// 全量实时状态：开放区间为权威来源，叠加注册表中已连接但无会话的坐席。
func ListAgentsLive(c *gin.Context) {
	open, err := dbsessions.ListAllOpenIntervals()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to retrieve live status: "+err.Error())
		return
	}

	agents := make([]liveAgent, 0, len(open))
	seen := make(map[string]struct{}, len(open))
	for i := range open {
		itv := &open[i]
		since := itv.StartTime
		hb := itv.LastHeartbeat
		agents = append(agents, liveAgent{
			AgentUUID:       itv.AgentUUID,
			Status:          itv.Status,
			Since:           &since,
			LastHeartbeat:   &hb,
			LiveConnections: ws.LiveConnections(itv.AgentUUID),
		})
		seen[itv.AgentUUID] = struct{}{}
	}
	// 已连接但没有开放区间的坐席按 offline 列出
	for _, uuid := range ws.OnlineAgents() {
		if _, ok := seen[uuid]; ok {
			continue
		}
		agents = append(agents, liveAgent{
			AgentUUID:       uuid,
			Status:          models.StatusOffline,
			LiveConnections: ws.LiveConnections(uuid),
		})
	}

	RespondSuccess(c, gin.H{"agents": agents})
}

// GET /api/agents/:uuid
func GetAgentLive(c *gin.Context) {
	agentUUID := c.Param("uuid")
	if agentUUID == "" {
		RespondError(c, http.StatusBadRequest, "Missing agent uuid")
		return
	}

	// 缓存快路径；miss 时回源会话存储并回填
	if status, ok := ws.GetLiveStatus(agentUUID); ok {
		RespondSuccess(c, liveAgent{
			AgentUUID:       agentUUID,
			Status:          status,
			LiveConnections: ws.LiveConnections(agentUUID),
		})
		return
	}

	open, err := dbsessions.GetOpenInterval(agentUUID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to retrieve live status: "+err.Error())
		return
	}
	status := models.StatusOffline
	resp := liveAgent{
		AgentUUID:       agentUUID,
		Status:          status,
		LiveConnections: ws.LiveConnections(agentUUID),
	}
	if open != nil {
		resp.Status = open.Status
		since := open.StartTime
		hb := open.LastHeartbeat
		resp.Since = &since
		resp.LastHeartbeat = &hb
	}
	ws.SetLiveStatus(agentUUID, resp.Status)
	RespondSuccess(c, resp)
}

// GET /api/agents/:uuid/cumulative?from=2006-01-02&to=2006-01-02
func GetAgentCumulative(c *gin.Context) {
	agentUUID := c.Param("uuid")
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		RespondError(c, http.StatusBadRequest, "Missing from/to")
		return
	}
	if _, err := time.Parse("2006-01-02", from); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid from: "+from)
		return
	}
	if _, err := time.Parse("2006-01-02", to); err != nil {
		RespondError(c, http.StatusBadRequest, "Invalid to: "+to)
		return
	}

	rows, err := cumulative.ListRange(agentUUID, from, to)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "Failed to retrieve cumulative: "+err.Error())
		return
	}
	RespondSuccess(c, gin.H{"cumulative": rows})
}
