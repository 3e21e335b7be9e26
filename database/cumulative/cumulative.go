package cumulative

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

// AddSeconds 向坐席某日的累计行累加秒数，行不存在时创建。
// 同一区间关闭事务内调用，保证关闭与累计的原子性。
func AddSeconds(tx *gorm.DB, agentUUID, day string, workSeconds, pauseSeconds int64) error {
	if tx == nil {
		tx = dbcore.GetDBInstance()
	}
	if workSeconds == 0 && pauseSeconds == 0 {
		return nil
	}
	row := models.DailyCumulative{
		AgentUUID:       agentUUID,
		Day:             day,
		WorkSeconds:     workSeconds,
		PauseSeconds:    pauseSeconds,
		PresenceSeconds: workSeconds + pauseSeconds,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agent_uuid"}, {Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"work_seconds":     gorm.Expr("work_seconds + ?", workSeconds),
			"pause_seconds":    gorm.Expr("pause_seconds + ?", pauseSeconds),
			"presence_seconds": gorm.Expr("presence_seconds + ?", workSeconds+pauseSeconds),
		}),
	}).Create(&row).Error
}

// GetDay 返回坐席某日的累计行；不存在时返回 (nil, nil)。
func GetDay(agentUUID, day string) (*models.DailyCumulative, error) {
	var row models.DailyCumulative
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ? AND day = ?", agentUUID, day).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListRange 返回坐席 [fromDay, toDay] 的累计行（日期为 YYYY-MM-DD，字典序即时间序）。
func ListRange(agentUUID, fromDay, toDay string) ([]models.DailyCumulative, error) {
	var rows []models.DailyCumulative
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ? AND day >= ? AND day <= ?", agentUUID, fromDay, toDay).
		Order("day ASC").
		Find(&rows).Error
	return rows, err
}

// ListCorrections 返回坐席的全部修正审计快照，新的在前。
func ListCorrections(agentUUID string) ([]models.CumulativeCorrection, error) {
	var rows []models.CumulativeCorrection
	err := dbcore.GetDBInstance().
		Where("agent_uuid = ?", agentUUID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// ApplyCorrection 在一个事务里整体覆写累计行并追加修正审计快照。
// 校验由引擎完成，这里只负责持久化。
func ApplyCorrection(row *models.DailyCumulative, work, pause, presence int64, corr *models.CumulativeCorrection) error {
	return dbcore.GetDBInstance().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DailyCumulative{}).
			Where("id = ?", row.ID).
			Updates(map[string]any{
				"work_seconds":     work,
				"pause_seconds":    pause,
				"presence_seconds": presence,
				"is_corrected":     true,
				"corrected_by":     corr.AdminUUID,
			}).Error; err != nil {
			return err
		}
		return tx.Create(corr).Error
	})
}
