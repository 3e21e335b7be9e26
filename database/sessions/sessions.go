package sessions

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

// GetOpenInterval 返回坐席当前的开放区间；没有时返回 (nil, nil)。
func GetOpenInterval(agentUUID string) (*models.SessionInterval, error) {
	var itv models.SessionInterval
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ? AND end_time IS NULL", agentUUID).
		Order("start_time DESC").
		First(&itv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &itv, nil
}

// ListOpenIntervals 返回坐席的全部开放区间。正常情况下至多一条；
// 多于一条意味着不变量被破坏，由引擎自愈。
func ListOpenIntervals(agentUUID string) ([]models.SessionInterval, error) {
	var itvs []models.SessionInterval
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ? AND end_time IS NULL", agentUUID).
		Order("start_time ASC, id ASC").
		Find(&itvs).Error
	return itvs, err
}

// ListAllOpenIntervals 返回所有坐席的开放区间（看门狗与每日任务扫描用）。
func ListAllOpenIntervals() ([]models.SessionInterval, error) {
	var itvs []models.SessionInterval
	err := dbcore.GetDBInstance().
		Where("end_time IS NULL").
		Order("agent_uuid ASC, start_time ASC").
		Find(&itvs).Error
	return itvs, err
}

// ListStaleOpenIntervals 返回心跳早于 olderThan 的开放区间。
func ListStaleOpenIntervals(olderThan time.Time) ([]models.SessionInterval, error) {
	var itvs []models.SessionInterval
	err := dbcore.GetDBInstance().
		Where("end_time IS NULL AND last_heartbeat < ?", models.FromTime(olderThan)).
		Find(&itvs).Error
	return itvs, err
}

// GetLatestInterval 返回坐席最近的一条区间（开放或已关闭），用于重连后恢复状态。
func GetLatestInterval(agentUUID string) (*models.SessionInterval, error) {
	var itv models.SessionInterval
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ?", agentUUID).
		Order("start_time DESC, id DESC").
		First(&itv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &itv, nil
}

// CreateInterval 插入一条新区间。
func CreateInterval(itv *models.SessionInterval) error {
	return dbcore.GetDBInstance().Create(itv).Error
}

// CloseInterval 以条件更新关闭区间：仅当该区间仍开放时生效，
// 返回是否真正关闭。重复关闭是无害的 no-op，这让看门狗与
// 客户端驱动的关闭可以安全地竞争。
func CloseInterval(tx *gorm.DB, id uint, start, end time.Time) (bool, error) {
	if tx == nil {
		tx = dbcore.GetDBInstance()
	}
	endLT := models.FromTime(end)
	res := tx.Model(&models.SessionInterval{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(map[string]any{
			"start_time": models.FromTime(start),
			"end_time":   &endLT,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// TouchHeartbeat 更新开放区间的最近心跳时间；区间已关闭时不生效。
func TouchHeartbeat(id uint, at time.Time) error {
	return dbcore.GetDBInstance().Model(&models.SessionInterval{}).
		Where("id = ? AND end_time IS NULL", id).
		Update("last_heartbeat", models.FromTime(at)).Error
}

// UpdateIntervalWindow 覆写区间的起止时间（夜间清理重钳制用）。
func UpdateIntervalWindow(tx *gorm.DB, id uint, start, end time.Time) error {
	if tx == nil {
		tx = dbcore.GetDBInstance()
	}
	endLT := models.FromTime(end)
	return tx.Model(&models.SessionInterval{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"start_time": models.FromTime(start),
			"end_time":   &endLT,
		}).Error
}

// ListIntervalsBetween 返回起点落在 [from, to) 内的区间，按坐席可选过滤。
func ListIntervalsBetween(agentUUID string, from, to time.Time) ([]models.SessionInterval, error) {
	db := dbcore.GetDBInstance().
		Where("start_time >= ? AND start_time < ?", models.FromTime(from), models.FromTime(to))
	if agentUUID != "" {
		db = db.Where("agent_uuid = ?", agentUUID)
	}
	var itvs []models.SessionInterval
	err := db.Order("agent_uuid ASC, start_time ASC, id ASC").Find(&itvs).Error
	return itvs, err
}

// HistoryFilter 区间历史查询过滤条件。
type HistoryFilter struct {
	AgentUUID string
	Status    models.AgentStatus
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// ListHistory 分页查询坐席区间历史。
func ListHistory(f HistoryFilter) ([]models.SessionInterval, int64, error) {
	db := dbcore.GetDBInstance().Model(&models.SessionInterval{}).
		Where("agent_uuid = ?", f.AgentUUID)
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.From != nil {
		db = db.Where("start_time >= ?", models.FromTime(*f.From))
	}
	if f.To != nil {
		db = db.Where("start_time < ?", models.FromTime(*f.To))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var itvs []models.SessionInterval
	err := db.Order("start_time DESC, id DESC").
		Limit(f.PageSize).
		Offset((f.Page - 1) * f.PageSize).
		Find(&itvs).Error
	return itvs, total, err
}
