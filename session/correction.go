package session

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

type cumulativeSnapshot struct {
	WorkSeconds     int64 `json:"work_seconds"`
	PauseSeconds    int64 `json:"pause_seconds"`
	PresenceSeconds int64 `json:"presence_seconds"`
}

// Correct 管理员整体覆写某日累计，并追加不可变的修正审计快照。
// 校验：三个值非负、work + pause <= presence；与现值完全相同的
// “空修正”是错误而不是静默成功。
//
// 修正是一次性的人工调整（例如忘记下班打卡）：之后的区间关闭仍会在
// 修正后的基线上继续累加，这是预期行为而非缺陷。
func Correct(agentUUID, day string, work, pause, presence int64, adminUUID, adminName string) (*models.DailyCumulative, error) {
	if adminUUID == "" {
		return nil, ErrUnauthorized
	}
	if work < 0 || pause < 0 || presence < 0 {
		return nil, fmt.Errorf("%w: correction values must be non-negative", ErrInvalidTransition)
	}
	if work+pause > presence {
		return nil, fmt.Errorf("%w: work (%d) + pause (%d) exceeds presence (%d)", ErrInvalidTransition, work, pause, presence)
	}

	var row *models.DailyCumulative
	err := retryOnce(func() error {
		var err error
		row, err = cumulative.GetDay(agentUUID, day)
		return err
	})
	if err != nil {
		return nil, err
	}
	if row == nil {
		// 没有累计行时以零值为基线创建后再修正
		row = &models.DailyCumulative{AgentUUID: agentUUID, Day: day}
		if err := retryOnce(func() error {
			return dbcore.GetDBInstance().Create(row).Error
		}); err != nil {
			return nil, err
		}
	}

	if row.WorkSeconds == work && row.PauseSeconds == pause && row.PresenceSeconds == presence {
		return nil, fmt.Errorf("%w: correction does not change any value", ErrInvalidTransition)
	}

	oldSnap, _ := json.Marshal(cumulativeSnapshot{row.WorkSeconds, row.PauseSeconds, row.PresenceSeconds})
	newSnap, _ := json.Marshal(cumulativeSnapshot{work, pause, presence})
	commentaire := correctionDiff(row, work, pause, presence, adminName)

	corr := &models.CumulativeCorrection{
		CorrectionUUID: uuid.NewString(),
		AgentUUID:      agentUUID,
		Day:            day,
		AdminUUID:      adminUUID,
		OldValues:      string(oldSnap),
		NewValues:      string(newSnap),
		Commentaire:    commentaire,
	}
	if err := retryOnce(func() error {
		return cumulative.ApplyCorrection(row, work, pause, presence, corr)
	}); err != nil {
		return nil, err
	}

	auditlog.Add("correction", agentUUID, adminUUID, commentaire)

	row.WorkSeconds = work
	row.PauseSeconds = pause
	row.PresenceSeconds = presence
	row.IsCorrected = true
	row.CorrectedBy = adminUUID
	return row, nil
}

// correctionDiff 生成人类可读的修正说明，作为审计备注。
func correctionDiff(row *models.DailyCumulative, work, pause, presence int64, adminName string) string {
	diff := fmt.Sprintf("correction by %s on %s:", adminName, row.Day)
	diff += diffField(" work", row.WorkSeconds, work)
	diff += diffField(", pause", row.PauseSeconds, pause)
	diff += diffField(", presence", row.PresenceSeconds, presence)
	return diff
}

func diffField(name string, oldVal, newVal int64) string {
	if oldVal == newVal {
		return fmt.Sprintf("%s unchanged (%ds)", name, oldVal)
	}
	return fmt.Sprintf("%s %ds -> %ds", name, oldVal, newVal)
}
