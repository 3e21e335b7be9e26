package ws

import (
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/codeurluce/hellocenter-presence/database/models"
)

// 实时状态读缓存：写路径每次状态提交后刷新，读路径兜底回源会话存储。
// TTL 约束陈旧窗口，广播丢失时最多一分钟内自愈。
var liveStatus = cache.New(time.Minute, 5*time.Minute)

func SetLiveStatus(agentUUID string, status models.AgentStatus) {
	liveStatus.Set(agentUUID, status, cache.DefaultExpiration)
}

func GetLiveStatus(agentUUID string) (models.AgentStatus, bool) {
	v, ok := liveStatus.Get(agentUUID)
	if !ok {
		return models.StatusOffline, false
	}
	status, ok := v.(models.AgentStatus)
	return status, ok
}
