package models

// AgentStatus 坐席状态枚举。offline 为隐含状态（没有开放区间时），不落库。
type AgentStatus string

const (
	StatusAvailable AgentStatus = "available"
	StatusBreak1    AgentStatus = "break1"
	StatusLunch     AgentStatus = "lunch"
	StatusBreak2    AgentStatus = "break2"
	StatusMeeting   AgentStatus = "meeting"
	StatusTraining  AgentStatus = "training"
	StatusBriefing  AgentStatus = "briefing"
	StatusOffline   AgentStatus = "offline"
)

// Valid 仅允许可落库的状态（offline 不在其中）。
func (s AgentStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBreak1, StatusLunch, StatusBreak2,
		StatusMeeting, StatusTraining, StatusBriefing:
		return true
	}
	return false
}

// IsPause 仅 break1 / lunch / break2 计入暂停时长。
func (s AgentStatus) IsPause() bool {
	switch s {
	case StatusBreak1, StatusLunch, StatusBreak2:
		return true
	}
	return false
}

// IsWork 会议/培训/早会与 available 一样计入工作时长。
func (s AgentStatus) IsWork() bool {
	switch s {
	case StatusAvailable, StatusMeeting, StatusTraining, StatusBriefing:
		return true
	}
	return false
}

// SessionInterval 坐席单段连续状态区间。
// - EndTime 为空表示当前开放（活跃）区间；每个坐席同一时刻至多一条开放区间
// - StartTime == EndTime 的零长度区间是合法的（钳制折叠产生）
type SessionInterval struct {
	ID            uint        `json:"id" gorm:"primaryKey;autoIncrement"`
	AgentUUID     string      `json:"agent_uuid" gorm:"type:varchar(36);not null;index;index:idx_agent_open,priority:1"`
	Status        AgentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	PauseReason   string      `json:"pause_reason,omitempty" gorm:"type:text"`
	StartTime     LocalTime   `json:"start_time" gorm:"not null;index"`
	EndTime       *LocalTime  `json:"end_time,omitempty" gorm:"index;index:idx_agent_open,priority:2"`
	LastHeartbeat LocalTime   `json:"last_heartbeat"`
	CreatedAt     LocalTime   `json:"created_at"`
	UpdatedAt     LocalTime   `json:"updated_at"`
}

// DailyCumulative 坐席每日累计（单位秒）。
// 未修正时恒有 presence = work + pause；修正后只保证 work + pause <= presence。
type DailyCumulative struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AgentUUID       string    `json:"agent_uuid" gorm:"type:varchar(36);not null;uniqueIndex:idx_agent_day,priority:1"`
	Day             string    `json:"day" gorm:"type:varchar(10);not null;uniqueIndex:idx_agent_day,priority:2;index"` // YYYY-MM-DD
	WorkSeconds     int64     `json:"work_seconds" gorm:"type:bigint;default:0"`
	PauseSeconds    int64     `json:"pause_seconds" gorm:"type:bigint;default:0"`
	PresenceSeconds int64     `json:"presence_seconds" gorm:"type:bigint;default:0"`
	IsCorrected     bool      `json:"is_corrected" gorm:"default:false"`
	CorrectedBy     string    `json:"corrected_by,omitempty" gorm:"type:varchar(36)"`
	CreatedAt       LocalTime `json:"created_at"`
	UpdatedAt       LocalTime `json:"updated_at"`
}

// CumulativeCorrection 累计修正的审计快照，只追加不修改。
type CumulativeCorrection struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CorrectionUUID string    `json:"correction_uuid" gorm:"type:varchar(36);uniqueIndex"`
	AgentUUID      string    `json:"agent_uuid" gorm:"type:varchar(36);not null;index"`
	Day            string    `json:"day" gorm:"type:varchar(10);not null;index"`
	AdminUUID      string    `json:"admin_uuid" gorm:"type:varchar(36);not null"`
	OldValues      string    `json:"old_values" gorm:"type:longtext"` // JSON 快照
	NewValues      string    `json:"new_values" gorm:"type:longtext"` // JSON 快照
	Commentaire    string    `json:"commentaire" gorm:"type:text"`    // 自动生成的差异说明
	CreatedAt      LocalTime `json:"created_at"`
}

// AuditEvent 会话相关的审计事件（强制断开、强制暂停、自动断开、不变量自愈等）。
type AuditEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AgentUUID string    `json:"agent_uuid" gorm:"type:varchar(36);index"`
	EventType string    `json:"event_type" gorm:"type:varchar(32);index"` // auto_disconnect / force_pause / force_disconnect / invariant_heal / correction
	ActorUUID string    `json:"actor_uuid,omitempty" gorm:"type:varchar(36)"`
	Message   string    `json:"message" gorm:"type:longtext"`
	CreatedAt LocalTime `json:"created_at" gorm:"index"`
}
