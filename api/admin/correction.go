package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeurluce/hellocenter-presence/api"
	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/session"
)

// POST /api/admin/agents/:uuid/cumulative/:day/correct
// 整体覆写某日累计，快照审计由引擎负责。三个值都必填。
func CorrectCumulative(c *gin.Context) {
	agentUUID := c.Param("uuid")
	day := c.Param("day")
	adminUUID, adminName, ok := adminIdentity(c)
	if !ok {
		return
	}
	if _, err := time.Parse("2006-01-02", day); err != nil {
		api.RespondError(c, http.StatusBadRequest, "Invalid day: "+day)
		return
	}

	var req struct {
		WorkSeconds     *int64 `json:"work_seconds" binding:"required"`
		PauseSeconds    *int64 `json:"pause_seconds" binding:"required"`
		PresenceSeconds *int64 `json:"presence_seconds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	row, err := session.Correct(agentUUID, day, *req.WorkSeconds, *req.PauseSeconds, *req.PresenceSeconds, adminUUID, adminName)
	if err != nil {
		api.RespondError(c, api.ErrorStatus(err), err.Error())
		return
	}
	api.RespondSuccess(c, row)
}

// GET /api/admin/agents/:uuid/corrections
func ListCorrections(c *gin.Context) {
	agentUUID := c.Param("uuid")
	corrections, err := cumulative.ListCorrections(agentUUID)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, "Failed to retrieve corrections: "+err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{"corrections": corrections})
}
