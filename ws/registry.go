package ws

import (
	"sync"
	"time"

	"github.com/codeurluce/hellocenter-presence/database/models"
)

var mu sync.RWMutex

// 进程内连接注册表：坐席标识 -> 在线连接集合，外加最近一次心跳时间。
// 不落库，进程重启后由坐席重连重建。多进程部署需要集中化或粘性路由，
// 这是明确的扩展边界。
var (
	agentConns  = map[string]map[*SafeConn]struct{}{}
	agentSeen   = map[string]time.Time{}
	subscribers = map[*SafeConn]struct{}{}
)

// AddAgentConn 登记坐席的一条在线连接。同一坐席允许多条（多标签页/多设备）。
func AddAgentConn(agentUUID string, conn *SafeConn) {
	mu.Lock()
	defer mu.Unlock()
	set := agentConns[agentUUID]
	if set == nil {
		set = map[*SafeConn]struct{}{}
		agentConns[agentUUID] = set
	}
	set[conn] = struct{}{}
	agentSeen[agentUUID] = time.Now()
}

// RemoveAgentConn 移除一条连接，返回该坐席剩余在线连接数。
func RemoveAgentConn(agentUUID string, conn *SafeConn) int {
	mu.Lock()
	defer mu.Unlock()
	set := agentConns[agentUUID]
	if set == nil {
		return 0
	}
	delete(set, conn)
	if len(set) == 0 {
		delete(agentConns, agentUUID)
		return 0
	}
	return len(set)
}

// LiveConnections 返回坐席当前的在线连接数。
func LiveConnections(agentUUID string) int {
	mu.RLock()
	defer mu.RUnlock()
	return len(agentConns[agentUUID])
}

// OnlineAgents 返回所有至少有一条在线连接的坐席。
func OnlineAgents() []string {
	mu.RLock()
	defer mu.RUnlock()
	agents := make([]string, 0, len(agentConns))
	for uuid := range agentConns {
		agents = append(agents, uuid)
	}
	return agents
}

// MarkSeen 更新坐席在注册表中的最近心跳时间。
func MarkSeen(agentUUID string) {
	mu.Lock()
	defer mu.Unlock()
	agentSeen[agentUUID] = time.Now()
}

// LastSeen 返回坐席在注册表中的最近心跳时间。
func LastSeen(agentUUID string) (time.Time, bool) {
	mu.RLock()
	defer mu.RUnlock()
	t, ok := agentSeen[agentUUID]
	return t, ok
}

// NotifyAgent 向坐席自己的全部在线连接发送定向通知（强制状态变更回显）。
func NotifyAgent(agentUUID string, payload any) {
	mu.RLock()
	conns := make([]*SafeConn, 0, len(agentConns[agentUUID]))
	for conn := range agentConns[agentUUID] {
		conns = append(conns, conn)
	}
	mu.RUnlock()

	for _, conn := range conns {
		if conn.WriteJSON(payload) != nil {
			RemoveAgentConn(agentUUID, conn)
		}
	}
}

// DropAgent 关闭并移除坐席的全部连接，把注册表中的坐席标记为离线。
func DropAgent(agentUUID string) {
	mu.Lock()
	conns := make([]*SafeConn, 0, len(agentConns[agentUUID]))
	for conn := range agentConns[agentUUID] {
		conns = append(conns, conn)
	}
	delete(agentConns, agentUUID)
	delete(agentSeen, agentUUID)
	mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
	SetLiveStatus(agentUUID, models.StatusOffline)
}

// AddSubscriber 登记一条管理端订阅连接（仪表盘）。
func AddSubscriber(conn *SafeConn) {
	mu.Lock()
	defer mu.Unlock()
	subscribers[conn] = struct{}{}
}

// RemoveSubscriber 移除管理端订阅连接。
func RemoveSubscriber(conn *SafeConn) {
	mu.Lock()
	defer mu.Unlock()
	delete(subscribers, conn)
}
