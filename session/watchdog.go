package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
)

// StartWatchdog 启动不活跃看门狗：按固定周期扫描心跳过期的开放区间
// 并强制关闭。同一周期顺带触发每日维护（内部自带当天去重）。
func StartWatchdog(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(cfg.WatchdogPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				RunWatchdogOnce(timeNow())
				MaybeRunDailyMaintenance(timeNow())
			}
		}
	}()
}

// RunWatchdogOnce 扫描一轮。单个坐席失败只记录日志，不中断整批。
func RunWatchdogOnce(now time.Time) {
	stale, err := dbsessions.ListStaleOpenIntervals(now.Add(-cfg.HeartbeatTimeout))
	if err != nil {
		log.Printf("session: watchdog scan failed: %v", err)
		return
	}
	for i := range stale {
		if err := closeStale(&stale[i], now); err != nil {
			log.Printf("session: watchdog close failed: agent=%s interval=%d err=%v",
				stale[i].AgentUUID, stale[i].ID, err)
		}
	}
}

// closeStale 对心跳过期的区间执行与 Disconnect(reason=system) 相同的原子关闭。
// 关闭是幂等的：与客户端驱动的合法关闭竞争时输掉也无害。
func closeStale(itv *models.SessionInterval, now time.Time) error {
	unlock := lockAgent(itv.AgentUUID)
	defer unlock()

	closed, err := closeInterval(itv, now.In(cfg.Location()))
	if err != nil {
		return err
	}
	if !closed {
		return nil
	}

	reason := fmt.Sprintf("no heartbeat since %s, session closed by watchdog",
		itv.LastHeartbeat.ToTime().Format("15:04:05"))
	auditlog.Add("auto_disconnect", itv.AgentUUID, "", reason)

	// 先通知坐席自己的在线连接（如果还有），再标记离线
	if registry != nil {
		registry.NotifyAgent(itv.AgentUUID, map[string]any{
			"event":  EventSessionClosedForce,
			"reason": reason,
		})
		registry.DropAgent(itv.AgentUUID)
	}
	emitSessionClosedForce(itv.AgentUUID, reason)
	emitStatusChanged(itv.AgentUUID, models.StatusOffline)
	return nil
}
