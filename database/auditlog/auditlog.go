package auditlog

import (
	"log"

	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

// Add 追加一条审计事件。审计失败不应影响主流程，只记录日志。
func Add(eventType, agentUUID, actorUUID, message string) {
	entry := models.AuditEvent{
		AgentUUID: agentUUID,
		EventType: eventType,
		ActorUUID: actorUUID,
		Message:   message,
	}
	if err := dbcore.GetDBInstance().Create(&entry).Error; err != nil {
		log.Printf("auditlog.Add failed: type=%s agent=%s err=%v", eventType, agentUUID, err)
	}
}

// List 分页查询审计事件，agentUUID 为空时返回全部坐席。
func List(agentUUID string, page, pageSize int) ([]models.AuditEvent, int64, error) {
	db := dbcore.GetDBInstance().Model(&models.AuditEvent{})
	if agentUUID != "" {
		db = db.Where("agent_uuid = ?", agentUUID)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.AuditEvent
	err := db.Order("created_at DESC, id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&events).Error
	return events, total, err
}
