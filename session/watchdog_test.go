package session

import (
	"testing"
	"time"

	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/models"
	dbsessions "github.com/codeurluce/hellocenter-presence/database/sessions"
)

func wdAt(h, m int) time.Time {
	return time.Date(2025, 5, 12, h, m, 0, 0, time.Local)
}

func TestWatchdogClosesStale(t *testing.T) {
	reg, bc := setupEngine(t)
	advance := useClock(t, wdAt(9, 0))
	stale := "agent-wd-stale"
	fresh := "agent-wd-fresh"

	if _, err := StartOrChange(stale, models.StatusAvailable, ""); err != nil {
		t.Fatalf("StartOrChange failed: %v", err)
	}
	advance(wdAt(9, 45))
	if _, err := StartOrChange(fresh, models.StatusAvailable, ""); err != nil {
		t.Fatalf("StartOrChange failed: %v", err)
	}

	// 阈值 30 分钟：09:00 的心跳过期，09:45 的还在
	RunWatchdogOnce(wdAt(10, 0))

	if open, _ := dbsessions.GetOpenInterval(stale); open != nil {
		t.Fatal("stale session not closed by watchdog")
	}
	if open, _ := dbsessions.GetOpenInterval(fresh); open == nil {
		t.Fatal("fresh session wrongly closed by watchdog")
	}

	row, err := cumulative.GetDay(stale, "2025-05-12")
	if err != nil {
		t.Fatalf("GetDay failed: %v", err)
	}
	if row == nil || row.WorkSeconds != 3600 {
		t.Fatalf("stale session not aggregated up to close time: %+v", row)
	}
	if !hasAuditEvent(t, stale, "auto_disconnect") {
		t.Fatal("auto disconnect not audited")
	}
	if reg.dropped[stale] == 0 {
		t.Fatal("stale agent connections not dropped")
	}
	if !bc.has(EventSessionClosedForce) {
		t.Fatal("session_closed_force event not broadcast")
	}

	// 重复扫描是幂等的
	RunWatchdogOnce(wdAt(10, 30))
	row, err = cumulative.GetDay(stale, "2025-05-12")
	if err != nil {
		t.Fatalf("GetDay failed: %v", err)
	}
	if row.WorkSeconds != 3600 {
		t.Fatalf("second watchdog pass changed totals: %d", row.WorkSeconds)
	}
}

func TestWatchdogHeartbeatKeepsAlive(t *testing.T) {
	setupEngine(t)
	advance := useClock(t, wdAt(11, 0))
	agent := "agent-wd-alive"

	if _, err := StartOrChange(agent, models.StatusAvailable, ""); err != nil {
		t.Fatalf("StartOrChange failed: %v", err)
	}
	advance(wdAt(11, 50))
	if err := Heartbeat(agent); err != nil {
		t.Fatalf("Heartbeat failed: %v", err)
	}

	RunWatchdogOnce(wdAt(12, 0))
	if open, _ := dbsessions.GetOpenInterval(agent); open == nil {
		t.Fatal("session with recent heartbeat closed by watchdog")
	}
}
