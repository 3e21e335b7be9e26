package session

import (
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codeurluce/hellocenter-presence/database/auditlog"
	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
)

var (
	dailyMaintMu       sync.Mutex
	dailyMaintLastDate string
	dailyMaintRunning  bool
)

// MaybeRunDailyMaintenance 可被高频调用（搭看门狗周期的便车），
// 内部保证每天只真正运行一次且不会并发重入。
func MaybeRunDailyMaintenance(now time.Time) {
	now = now.In(cfg.Location())
	dateKey := dayKey(now)

	dailyMaintMu.Lock()
	if dailyMaintRunning || dailyMaintLastDate == dateKey {
		dailyMaintMu.Unlock()
		return
	}
	dailyMaintRunning = true
	dailyMaintLastDate = dateKey
	dailyMaintMu.Unlock()

	go func() {
		defer func() {
			dailyMaintMu.Lock()
			dailyMaintRunning = false
			dailyMaintMu.Unlock()
		}()
		if err := RunDailyMaintenance(now); err != nil {
			log.Printf("session: daily maintenance failed: %v", err)
		}
	}()
}

// RunDailyMaintenance 先做午夜拆分（保证区间不跨天），再对昨日做班次清理。
func RunDailyMaintenance(now time.Time) error {
	if err := RunMidnightSplit(now); err != nil {
		return err
	}
	return RunShiftCleanup(now.AddDate(0, 0, -1))
}

// RunMidnightSplit 把仍开放且起点早于今日零点的区间按天拆分：
// 在起始日 23:59:59 关闭，并在次日 00:00:00 以相同状态重新开启，
// 保证没有区间跨越日界（按日累计的前提）。停机积欠的多天会被逐日补齐。
func RunMidnightSplit(now time.Time) error {
	today := startOfDay(now.In(cfg.Location()))
	open, err := dbsessions.ListAllOpenIntervals()
	if err != nil {
		return err
	}
	for i := range open {
		if !open[i].StartTime.ToTime().Before(today) {
			continue
		}
		if err := splitAcrossMidnight(&open[i], today); err != nil {
			log.Printf("session: midnight split failed: agent=%s interval=%d err=%v",
				open[i].AgentUUID, open[i].ID, err)
		}
	}
	return nil
}

func splitAcrossMidnight(itv *models.SessionInterval, today time.Time) error {
	unlock := lockAgent(itv.AgentUUID)
	defer unlock()

	cur := *itv
	for cur.StartTime.ToTime().Before(today) {
		start := cur.StartTime.ToTime()
		nextDay := startOfDay(start).AddDate(0, 0, 1)
		closeAt := nextDay.Add(-time.Second)
		if closeAt.Before(start) {
			closeAt = start
		}

		next := models.SessionInterval{}
		err := retryOnce(func() error {
			return dbcore.GetDBInstance().Transaction(func(tx *gorm.DB) error {
				// 拆分记录原始时刻，不过钳制；越界部分由班次清理单独矫正
				ok, err := dbsessions.CloseInterval(tx, cur.ID, start, closeAt)
				if err != nil {
					return err
				}
				if !ok {
					return errAlreadyClosed
				}
				if err := aggregateClosed(tx, cur.AgentUUID, cur.Status, start, closeAt); err != nil {
					return err
				}
				next = models.SessionInterval{
					AgentUUID:     cur.AgentUUID,
					Status:        cur.Status,
					PauseReason:   cur.PauseReason,
					StartTime:     models.FromTime(nextDay),
					LastHeartbeat: cur.LastHeartbeat, // 保留原心跳，确实死掉的会话仍会被看门狗捕获
				}
				return tx.Create(&next).Error
			})
		})
		if errors.Is(err, errAlreadyClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		cur = next
	}
	return nil
}

// RunShiftCleanup 对指定日期执行夜间清理：重钳制每个坐席当日的已关闭
// 区间（对齐班次边界，完全越界的折叠为零长度），把时长差回写进当日累计。
// 修正的是开在排班之前、或因丢失关闭事件而拖到排班之后的区间。
func RunShiftCleanup(day time.Time) error {
	loc := cfg.Location()
	dayStart := startOfDay(day.In(loc))
	dayEnd := dayStart.AddDate(0, 0, 1)
	shiftStart, shiftEnd := cfg.ShiftBounds(dayStart)

	itvs, err := dbsessions.ListIntervalsBetween("", dayStart, dayEnd)
	if err != nil {
		return err
	}

	// 查询按 agent, start 排序，按坐席切组逐个处理
	for lo := 0; lo < len(itvs); {
		hi := lo
		for hi < len(itvs) && itvs[hi].AgentUUID == itvs[lo].AgentUUID {
			hi++
		}
		if err := cleanupAgentDay(itvs[lo:hi], shiftStart, shiftEnd); err != nil {
			log.Printf("session: shift cleanup failed: agent=%s day=%s err=%v",
				itvs[lo].AgentUUID, dayKey(dayStart), err)
		}
		lo = hi
	}
	return nil
}

func cleanupAgentDay(itvs []models.SessionInterval, shiftStart, shiftEnd time.Time) error {
	agentUUID := itvs[0].AgentUUID
	day := dayKey(itvs[0].StartTime.ToTime())

	return retryOnce(func() error {
		return dbcore.GetDBInstance().Transaction(func(tx *gorm.DB) error {
			var workDelta, pauseDelta int64
			for i := range itvs {
				itv := &itvs[i]
				if itv.EndTime == nil {
					continue // 仍开放的区间交给午夜拆分与看门狗
				}
				s := itv.StartTime.ToTime()
				e := itv.EndTime.ToTime()
				ns, ne := Clamp(s, e, shiftStart, shiftEnd)
				if ns.Equal(s) && ne.Equal(e) {
					continue
				}
				if err := dbsessions.UpdateIntervalWindow(tx, itv.ID, ns, ne); err != nil {
					return err
				}
				delta := int64(ne.Sub(ns).Seconds()) - int64(e.Sub(s).Seconds())
				if itv.Status.IsPause() {
					pauseDelta += delta
				} else {
					workDelta += delta
				}
			}
			if workDelta == 0 && pauseDelta == 0 {
				return nil
			}
			return cumulative.AddSeconds(tx, agentUUID, day, workDelta, pauseDelta)
		})
	})
}

// RepairDanglingOnStartup 服务重启时补齐上次异常退出遗留的开放区间：
// 以启动时间关闭（经钳制），坐席重连后重新开始会话。
func RepairDanglingOnStartup(now time.Time) {
	open, err := dbsessions.ListAllOpenIntervals()
	if err != nil {
		log.Printf("session: startup repair scan failed: %v", err)
		return
	}
	for i := range open {
		if _, err := closeInterval(&open[i], now.In(cfg.Location())); err != nil {
			log.Printf("session: startup repair close failed: agent=%s interval=%d err=%v",
				open[i].AgentUUID, open[i].ID, err)
			continue
		}
		auditlog.Add("auto_disconnect", open[i].AgentUUID, "", "session closed on server startup")
	}
	if len(open) > 0 {
		log.Printf("session: closed %d dangling intervals on startup", len(open))
	}
}
