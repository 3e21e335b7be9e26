package session

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codeurluce/hellocenter-presence/config"
	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
)

// DisconnectReason 会话关闭的来源。
type DisconnectReason string

const (
	ReasonClient DisconnectReason = "client"
	ReasonAdmin  DisconnectReason = "admin"
	ReasonSystem DisconnectReason = "system"
)

// Registry 进程内连接注册表的抽象，引擎不直接依赖传输层。
type Registry interface {
	LiveConnections(agentUUID string) int
	NotifyAgent(agentUUID string, payload any)
	DropAgent(agentUUID string)
}

// Broadcaster 管理端事件广播的抽象。
type Broadcaster interface {
	Broadcast(event string, data any)
}

var (
	cfg         *config.Config
	registry    Registry
	broadcaster Broadcaster

	timeNow = time.Now // 测试用虚拟时钟
)

// Setup 注入配置、连接注册表与广播器，必须在任何引擎调用之前完成。
func Setup(c *config.Config, r Registry, b Broadcaster) {
	cfg = c
	registry = r
	broadcaster = b
}

// 坐席粒度的互斥锁：同一坐席的“读开放区间、判断、写”序列必须原子，
// 避免并发转换同时看到“无开放区间”而各自插入一条。
var (
	agentLocksMu sync.Mutex
	agentLocks   = map[string]*sync.Mutex{}
)

func lockAgent(agentUUID string) func() {
	agentLocksMu.Lock()
	l := agentLocks[agentUUID]
	if l == nil {
		l = &sync.Mutex{}
		agentLocks[agentUUID] = l
	}
	agentLocksMu.Unlock()
	l.Lock()
	return l.Unlock
}

// StartOrChange 坐席状态转换入口。
// 已有同状态的开放区间时幂等复用（吸收重连竞争造成的重复 connect）；
// 否则在同一事务内关闭旧区间并开启新区间。
func StartOrChange(agentUUID string, status models.AgentStatus, pauseReason string) (*models.SessionInterval, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, status)
	}
	unlock := lockAgent(agentUUID)
	defer unlock()

	open, err := currentOpenInterval(agentUUID)
	if err != nil {
		return nil, err
	}
	if open != nil && open.Status == status {
		return open, nil
	}

	itv, err := transition(agentUUID, open, status, pauseReason, timeNow().In(cfg.Location()))
	if err != nil {
		return nil, err
	}
	emitStatusChanged(agentUUID, status)
	return itv, nil
}

// Heartbeat 更新开放区间的最近心跳；没有开放区间时静默 no-op。
// 心跳满足交换律、last-write-wins，乱序到达无害，因此无需加锁。
func Heartbeat(agentUUID string) error {
	var open *models.SessionInterval
	err := retryOnce(func() error {
		var err error
		open, err = dbsessions.GetOpenInterval(agentUUID)
		return err
	})
	if err != nil {
		return err
	}
	if open == nil {
		return nil
	}
	return retryOnce(func() error {
		return dbsessions.TouchHeartbeat(open.ID, timeNow())
	})
}

// Disconnect 关闭坐席的开放区间。
// reason 为 client 时，只有注册表中不再有任何在线连接才真正关闭
// （另一标签页/设备仍在线时保持区间开放）。没有开放区间时为良性 no-op。
func Disconnect(agentUUID string, reason DisconnectReason) error {
	if reason == ReasonClient && registry != nil && registry.LiveConnections(agentUUID) > 0 {
		return nil
	}
	unlock := lockAgent(agentUUID)
	defer unlock()

	open, err := currentOpenInterval(agentUUID)
	if err != nil {
		return err
	}
	if open == nil {
		return nil
	}

	now := timeNow().In(cfg.Location())
	closed, err := closeInterval(open, now)
	if err != nil {
		return err
	}
	if closed {
		emitStatusChanged(agentUUID, models.StatusOffline)
	}
	return nil
}

// ForcePause 管理员把 available 状态的坐席强制切到暂停。
// 守卫：坐席必须有在线连接且当前状态为 available，否则显式拒绝。
func ForcePause(agentUUID, adminUUID, adminName string, pauseType models.AgentStatus) error {
	if adminUUID == "" {
		return ErrUnauthorized
	}
	if pauseType == "" {
		pauseType = models.StatusLunch
	}
	if !pauseType.IsPause() {
		return fmt.Errorf("%w: %q is not a pause status", ErrInvalidTransition, pauseType)
	}
	if registry == nil || registry.LiveConnections(agentUUID) == 0 {
		return ErrNoLiveConnection
	}

	unlock := lockAgent(agentUUID)
	defer unlock()

	open, err := currentOpenInterval(agentUUID)
	if err != nil {
		return err
	}
	if open == nil {
		return fmt.Errorf("%w: agent %s", ErrNoActiveSession, agentUUID)
	}
	if open.Status != models.StatusAvailable {
		return fmt.Errorf("%w: force pause requires status available, agent is %q", ErrInvalidTransition, open.Status)
	}

	reason := fmt.Sprintf("forced pause (%s) by admin %s", pauseType, adminName)
	if _, err := transition(agentUUID, open, pauseType, reason, timeNow().In(cfg.Location())); err != nil {
		return err
	}

	auditlog.Add("force_pause", agentUUID, adminUUID, reason)
	emitForcePause(agentUUID, pauseType)
	emitStatusChanged(agentUUID, pauseType)
	if registry != nil {
		registry.NotifyAgent(agentUUID, map[string]any{
			"event":  EventForcePause,
			"reason": reason,
			"status": pauseType,
		})
	}
	return nil
}

// ForceDisconnect 管理员强制下线坐席：关闭开放区间并断开其全部连接。
// 对没有任何在线连接的坐席显式拒绝，而不是看似成功。
func ForceDisconnect(agentUUID, adminUUID, adminName string) error {
	if adminUUID == "" {
		return ErrUnauthorized
	}
	if registry == nil || registry.LiveConnections(agentUUID) == 0 {
		return ErrNoLiveConnection
	}

	unlock := lockAgent(agentUUID)
	defer unlock()

	now := timeNow().In(cfg.Location())
	open, err := currentOpenInterval(agentUUID)
	if err != nil {
		return err
	}
	if open != nil {
		if _, err := closeInterval(open, now); err != nil {
			return err
		}
	}

	reason := fmt.Sprintf("forced disconnect by admin %s", adminName)
	auditlog.Add("force_disconnect", agentUUID, adminUUID, reason)
	registry.NotifyAgent(agentUUID, map[string]any{
		"event":  EventForceDisconnect,
		"reason": reason,
	})
	registry.DropAgent(agentUUID)
	emitForceDisconnect(agentUUID, reason)
	emitStatusChanged(agentUUID, models.StatusOffline)
	return nil
}

// RestoreStatus 返回坐席最近一次已知状态与其区间是否仍开放，
// 供刷新页面的客户端原地恢复（而不是退回固定初始状态）。
func RestoreStatus(agentUUID string) (models.AgentStatus, bool, error) {
	var latest *models.SessionInterval
	err := retryOnce(func() error {
		var err error
		latest, err = dbsessions.GetLatestInterval(agentUUID)
		return err
	})
	if err != nil {
		return models.StatusOffline, false, err
	}
	if latest == nil {
		return models.StatusOffline, false, nil
	}
	return latest.Status, latest.EndTime == nil, nil
}

// currentOpenInterval 返回坐席唯一的开放区间，发现多条时自愈：
// 大声记录、关闭较旧的、保留最新的一条。调用方需已持有坐席锁。
func currentOpenInterval(agentUUID string) (*models.SessionInterval, error) {
	var opens []models.SessionInterval
	err := retryOnce(func() error {
		var err error
		opens, err = dbsessions.ListOpenIntervals(agentUUID)
		return err
	})
	if err != nil {
		return nil, err
	}
	switch len(opens) {
	case 0:
		return nil, nil
	case 1:
		return &opens[0], nil
	}

	log.Printf("session: INVARIANT VIOLATION: agent=%s has %d open intervals, healing by closing the older ones", agentUUID, len(opens))
	now := timeNow().In(cfg.Location())
	for i := 0; i < len(opens)-1; i++ {
		if _, err := closeInterval(&opens[i], now); err != nil {
			return nil, fmt.Errorf("%w: heal failed: %v", ErrInvariantViolation, err)
		}
	}
	auditlog.Add("invariant_heal", agentUUID, "", fmt.Sprintf("found %d open intervals, closed %d older ones", len(opens), len(opens)-1))
	return &opens[len(opens)-1], nil
}

// transition 在同一事务内关闭旧区间（如有）并创建新区间。
// 调用方需已持有坐席锁。
func transition(agentUUID string, open *models.SessionInterval, status models.AgentStatus, pauseReason string, now time.Time) (*models.SessionInterval, error) {
	shiftStart, _ := cfg.ShiftBounds(now)
	itv := &models.SessionInterval{}
	err := retryOnce(func() error {
		return dbcore.GetDBInstance().Transaction(func(tx *gorm.DB) error {
			if open != nil {
				if err := closeIntervalTx(tx, open, now); err != nil && !errors.Is(err, errAlreadyClosed) {
					return err
				}
			}
			*itv = models.SessionInterval{
				AgentUUID:     agentUUID,
				Status:        status,
				PauseReason:   pauseReason,
				StartTime:     models.FromTime(clampStart(now, shiftStart)),
				LastHeartbeat: models.FromTime(now),
			}
			return tx.Create(itv).Error
		})
	})
	if err != nil {
		return nil, err
	}
	return itv, nil
}

// closeInterval 在独立事务里关闭一个区间并累计其时长。
// 返回是否真正由本次调用关闭（false 表示合法的重复关闭竞争）。
func closeInterval(open *models.SessionInterval, end time.Time) (bool, error) {
	err := retryOnce(func() error {
		return dbcore.GetDBInstance().Transaction(func(tx *gorm.DB) error {
			return closeIntervalTx(tx, open, end)
		})
	})
	if errors.Is(err, errAlreadyClosed) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// closeIntervalTx 钳制后关闭区间，并在同一事务内把时长累计进当日行。
// 区间已被并发关闭时返回 errAlreadyClosed（调用方视为 no-op）。
func closeIntervalTx(tx *gorm.DB, open *models.SessionInterval, end time.Time) error {
	start := open.StartTime.ToTime()
	if end.Before(start) {
		return fmt.Errorf("%w: end %s before start %s", ErrClockSkew, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	shiftStart, shiftEnd := cfg.ShiftBounds(start)
	cs, ce := Clamp(start, end, shiftStart, shiftEnd)

	ok, err := dbsessions.CloseInterval(tx, open.ID, cs, ce)
	if err != nil {
		return err
	}
	if !ok {
		return errAlreadyClosed
	}
	return aggregateClosed(tx, open.AgentUUID, open.Status, cs, ce)
}

// aggregateClosed 把已关闭区间的时长计入当日累计。
// 区间从不跨天（午夜拆分保证），按起点所在日入账。
func aggregateClosed(tx *gorm.DB, agentUUID string, status models.AgentStatus, start, end time.Time) error {
	seconds := int64(end.Sub(start).Seconds())
	if seconds <= 0 {
		return nil
	}
	var work, pause int64
	if status.IsPause() {
		pause = seconds
	} else {
		work = seconds
	}
	return cumulative.AddSeconds(tx, agentUUID, dayKey(start), work, pause)
}
