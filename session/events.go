package session

import (
	"time"

	"github.com/codeurluce/hellocenter-presence/database/models"
)

// 广播给管理端订阅者的事件名，前端按字面量依赖。
const (
	EventStatusChanged      = "agent_status_changed"
	EventForceDisconnect    = "force_disconnect"
	EventForcePause         = "force_pause"
	EventSessionClosedForce = "session_closed_force"
)

type StatusChangedEvent struct {
	AgentUUID string             `json:"agent_uuid"`
	NewStatus models.AgentStatus `json:"new_status"`
	Timestamp time.Time          `json:"timestamp"`
}

type ForceDisconnectEvent struct {
	AgentUUID string    `json:"agent_uuid"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type ForcePauseEvent struct {
	AgentUUID string             `json:"agent_uuid"`
	PauseType models.AgentStatus `json:"pause_type"`
	Timestamp time.Time          `json:"timestamp"`
}

type SessionClosedForceEvent struct {
	AgentUUID string    `json:"agent_uuid"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// 事件只在存储提交之后发出，订阅者不会看到被回滚的状态。
// 投递是尽力而为：发送失败不回滚也不重试，掉线的订阅者重连后自行全量拉取。

func emitStatusChanged(agentUUID string, status models.AgentStatus) {
	if broadcaster == nil {
		return
	}
	broadcaster.Broadcast(EventStatusChanged, StatusChangedEvent{
		AgentUUID: agentUUID,
		NewStatus: status,
		Timestamp: timeNow(),
	})
}

func emitForceDisconnect(agentUUID, reason string) {
	if broadcaster == nil {
		return
	}
	broadcaster.Broadcast(EventForceDisconnect, ForceDisconnectEvent{
		AgentUUID: agentUUID,
		Reason:    reason,
		Timestamp: timeNow(),
	})
}

func emitForcePause(agentUUID string, pauseType models.AgentStatus) {
	if broadcaster == nil {
		return
	}
	broadcaster.Broadcast(EventForcePause, ForcePauseEvent{
		AgentUUID: agentUUID,
		PauseType: pauseType,
		Timestamp: timeNow(),
	})
}

func emitSessionClosedForce(agentUUID, reason string) {
	if broadcaster == nil {
		return
	}
	broadcaster.Broadcast(EventSessionClosedForce, SessionClosedForceEvent{
		AgentUUID: agentUUID,
		Reason:    reason,
		Timestamp: timeNow(),
	})
}
