package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/codeurluce/hellocenter-presence/session"
)

func RespondSuccess(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": data})
}

func RespondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "error": message})
}

// ErrorStatus 把引擎错误映射为 HTTP 状态码。
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNoLiveConnection),
		errors.Is(err, session.ErrNoActiveSession):
		return http.StatusConflict
	case errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, session.ErrClockSkew):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
