package sessions

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeurluce/hellocenter-presence/database/dbcore"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "presence-db-test-")
	if err != nil {
		panic(err)
	}
	if err := dbcore.InitDatabase("sqlite", filepath.Join(dir, "test.db")); err != nil {
		panic(err)
	}
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func newOpen(t *testing.T, agent string, start time.Time) *models.SessionInterval {
	t.Helper()
	itv := &models.SessionInterval{
		AgentUUID:     agent,
		Status:        models.StatusAvailable,
		StartTime:     models.FromTime(start),
		LastHeartbeat: models.FromTime(start),
	}
	if err := CreateInterval(itv); err != nil {
		t.Fatalf("CreateInterval failed: %v", err)
	}
	return itv
}

// 关闭是条件更新：只有第一个关闭者生效，竞争方拿到 false 而不是错误。
func TestCloseIntervalCAS(t *testing.T) {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	end := start.Add(time.Hour)
	itv := newOpen(t, "agent-db-cas", start)

	closed, err := CloseInterval(nil, itv.ID, start, end)
	if err != nil || !closed {
		t.Fatalf("first close = (%v, %v), want (true, nil)", closed, err)
	}
	closed, err = CloseInterval(nil, itv.ID, start, end.Add(time.Hour))
	if err != nil || closed {
		t.Fatalf("second close = (%v, %v), want (false, nil)", closed, err)
	}

	got, err := GetLatestInterval("agent-db-cas")
	if err != nil || got == nil {
		t.Fatalf("GetLatestInterval failed: %v %v", got, err)
	}
	if got.EndTime == nil || !got.EndTime.ToTime().Equal(end) {
		t.Fatalf("losing close overwrote end time: %v", got.EndTime)
	}
}

func TestGetOpenInterval(t *testing.T) {
	if itv, err := GetOpenInterval("agent-db-nobody"); err != nil || itv != nil {
		t.Fatalf("want (nil, nil) for unknown agent, got (%v, %v)", itv, err)
	}

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	newOpen(t, "agent-db-open", start)
	itv, err := GetOpenInterval("agent-db-open")
	if err != nil || itv == nil {
		t.Fatalf("GetOpenInterval failed: %v %v", itv, err)
	}
	if !itv.StartTime.ToTime().Equal(start) {
		t.Fatalf("start round trip lost precision: %v != %v", itv.StartTime.ToTime(), start)
	}
}

func TestListStaleOpenIntervals(t *testing.T) {
	base := time.Date(2025, 3, 11, 9, 0, 0, 0, time.Local)
	stale := newOpen(t, "agent-db-stale", base)
	fresh := newOpen(t, "agent-db-fresh", base)
	if err := TouchHeartbeat(fresh.ID, base.Add(45*time.Minute)); err != nil {
		t.Fatalf("TouchHeartbeat failed: %v", err)
	}

	got, err := ListStaleOpenIntervals(base.Add(30 * time.Minute))
	if err != nil {
		t.Fatalf("ListStaleOpenIntervals failed: %v", err)
	}
	foundStale, foundFresh := false, false
	for _, itv := range got {
		switch itv.ID {
		case stale.ID:
			foundStale = true
		case fresh.ID:
			foundFresh = true
		}
	}
	if !foundStale || foundFresh {
		t.Fatalf("stale scan wrong: stale=%v fresh=%v", foundStale, foundFresh)
	}
}

func TestListHistory(t *testing.T) {
	agent := "agent-db-history"
	base := time.Date(2025, 3, 12, 9, 0, 0, 0, time.Local)
	for i, status := range []models.AgentStatus{models.StatusAvailable, models.StatusLunch, models.StatusAvailable} {
		start := base.Add(time.Duration(i) * time.Hour)
		endLT := models.FromTime(start.Add(time.Hour))
		err := CreateInterval(&models.SessionInterval{
			AgentUUID:     agent,
			Status:        status,
			StartTime:     models.FromTime(start),
			EndTime:       &endLT,
			LastHeartbeat: models.FromTime(start),
		})
		if err != nil {
			t.Fatalf("CreateInterval failed: %v", err)
		}
	}

	itvs, total, err := ListHistory(HistoryFilter{AgentUUID: agent, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("ListHistory failed: %v", err)
	}
	if total != 3 || len(itvs) != 3 {
		t.Fatalf("unfiltered history = %d/%d, want 3/3", len(itvs), total)
	}

	itvs, total, err = ListHistory(HistoryFilter{AgentUUID: agent, Status: models.StatusLunch, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("filtered ListHistory failed: %v", err)
	}
	if total != 1 || len(itvs) != 1 || itvs[0].Status != models.StatusLunch {
		t.Fatalf("status filter wrong: %d/%d", len(itvs), total)
	}

	from := base.Add(90 * time.Minute)
	itvs, total, err = ListHistory(HistoryFilter{AgentUUID: agent, From: &from, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("from-filtered ListHistory failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("from filter total = %d, want 1", total)
	}

	// 分页：第二页只剩一条
	itvs, total, err = ListHistory(HistoryFilter{AgentUUID: agent, Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("paged ListHistory failed: %v", err)
	}
	if total != 3 || len(itvs) != 1 {
		t.Fatalf("page 2 = %d/%d, want 1/3", len(itvs), total)
	}
}
