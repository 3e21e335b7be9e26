package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeurluce/hellocenter-presence/api"
	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
)

func parsePaging(c *gin.Context) (page, pageSize int, ok bool) {
	pageStr := c.DefaultQuery("page", "1")
	pageSizeStr := c.DefaultQuery("page_size", "50")
	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		api.RespondError(c, http.StatusBadRequest, "Invalid page: "+pageStr)
		return 0, 0, false
	}
	pageSize, err = strconv.Atoi(pageSizeStr)
	if err != nil || pageSize <= 0 {
		api.RespondError(c, http.StatusBadRequest, "Invalid page_size: "+pageSizeStr)
		return 0, 0, false
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize, true
}

// GET /api/admin/agents/:uuid/intervals?status=&from=&to=&page=1&page_size=50
// 原始区间历史，支持状态与日期过滤。
func ListIntervalHistory(c *gin.Context) {
	agentUUID := c.Param("uuid")
	page, pageSize, ok := parsePaging(c)
	if !ok {
		return
	}

	filter := dbsessions.HistoryFilter{
		AgentUUID: agentUUID,
		Page:      page,
		PageSize:  pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := models.AgentStatus(s)
		if !status.Valid() {
			api.RespondError(c, http.StatusBadRequest, "Invalid status: "+s)
			return
		}
		filter.Status = status
	}
	if from := c.Query("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			api.RespondError(c, http.StatusBadRequest, "Invalid from: "+from)
			return
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			api.RespondError(c, http.StatusBadRequest, "Invalid to: "+to)
			return
		}
		t = t.AddDate(0, 0, 1) // to 为包含端，查询按起点 < to+1d
		filter.To = &t
	}

	itvs, total, err := dbsessions.ListHistory(filter)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, "Failed to retrieve intervals: "+err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{
		"intervals": itvs,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GET /api/admin/audit?agent=&page=1&page_size=50
// 审计事件（强制操作、自动断开、不变量自愈、修正）。
func ListAuditEvents(c *gin.Context) {
	page, pageSize, ok := parsePaging(c)
	if !ok {
		return
	}

	events, total, err := auditlog.List(c.Query("agent"), page, pageSize)
	if err != nil {
		api.RespondError(c, http.StatusInternalServerError, "Failed to retrieve audit events: "+err.Error())
		return
	}
	api.RespondSuccess(c, gin.H{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
