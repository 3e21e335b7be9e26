package session

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/codeurluce/hellocenter-presence/database/cumulative"
	"github.com/codeurluce/hellocenter-presence/database/models"
)

func corrAt(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.Local)
}

func TestCorrectValidation(t *testing.T) {
	setupEngine(t)
	agent := "agent-corr-validation"
	day := "2025-06-02"

	if _, err := Correct(agent, day, 100, 0, 100, "", "nobody"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if _, err := Correct(agent, day, -1, 0, 100, "admin-1", "Sam"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("negative value accepted: %v", err)
	}
	if _, err := Correct(agent, day, 3600, 3600, 3600, "admin-1", "Sam"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("work+pause > presence accepted: %v", err)
	}
}

func TestCorrect(t *testing.T) {
	setupEngine(t)
	agent := "agent-corr"
	day := "2025-06-02"

	if err := cumulative.AddSeconds(nil, agent, day, 3600, 1800); err != nil {
		t.Fatalf("AddSeconds failed: %v", err)
	}

	row, err := Correct(agent, day, 7200, 1800, 10800, "admin-1", "Sam")
	if err != nil {
		t.Fatalf("Correct failed: %v", err)
	}
	if row.WorkSeconds != 7200 || row.PauseSeconds != 1800 || row.PresenceSeconds != 10800 {
		t.Fatalf("corrected row = %+v", row)
	}
	if !row.IsCorrected || row.CorrectedBy != "admin-1" {
		t.Fatalf("correction marker missing: %+v", row)
	}

	stored, err := cumulative.GetDay(agent, day)
	if err != nil || stored == nil {
		t.Fatalf("GetDay failed: %v %v", stored, err)
	}
	if stored.WorkSeconds != 7200 || stored.PresenceSeconds != 10800 {
		t.Fatalf("stored row = %+v", stored)
	}

	corrs, err := cumulative.ListCorrections(agent)
	if err != nil {
		t.Fatalf("ListCorrections failed: %v", err)
	}
	if len(corrs) != 1 {
		t.Fatalf("want 1 correction snapshot, got %d", len(corrs))
	}
	if !strings.Contains(corrs[0].OldValues, "3600") || !strings.Contains(corrs[0].NewValues, "7200") {
		t.Fatalf("snapshot values wrong: old=%s new=%s", corrs[0].OldValues, corrs[0].NewValues)
	}
	if corrs[0].AdminUUID != "admin-1" || corrs[0].CorrectionUUID == "" {
		t.Fatalf("snapshot metadata wrong: %+v", corrs[0])
	}
	if !hasAuditEvent(t, agent, "correction") {
		t.Fatal("correction not audited")
	}

	// 与现值完全相同的空修正是错误而不是静默成功
	if _, err := Correct(agent, day, 7200, 1800, 10800, "admin-1", "Sam"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("no-op correction accepted: %v", err)
	}
}

func TestCorrectCreatesMissingRow(t *testing.T) {
	setupEngine(t)
	agent := "agent-corr-fresh"
	day := "2025-06-03"

	row, err := Correct(agent, day, 0, 0, 3600, "admin-1", "Sam")
	if err != nil {
		t.Fatalf("Correct on missing row failed: %v", err)
	}
	if row.PresenceSeconds != 3600 || !row.IsCorrected {
		t.Fatalf("row = %+v", row)
	}
}

// 修正是一次性基线调整：之后关闭的区间在修正后的值上继续累加。
func TestCorrectionThenAccumulate(t *testing.T) {
	setupEngine(t)
	advance := useClock(t, corrAt(9, 0))
	agent := "agent-corr-baseline"
	day := "2025-06-02"

	if _, err := StartOrChange(agent, models.StatusAvailable, ""); err != nil {
		t.Fatalf("StartOrChange failed: %v", err)
	}
	advance(corrAt(10, 0))
	if err := Disconnect(agent, ReasonClient); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if _, err := Correct(agent, day, 7200, 0, 7200, "admin-1", "Sam"); err != nil {
		t.Fatalf("Correct failed: %v", err)
	}

	advance(corrAt(11, 0))
	if _, err := StartOrChange(agent, models.StatusAvailable, ""); err != nil {
		t.Fatalf("StartOrChange failed: %v", err)
	}
	advance(corrAt(12, 0))
	if err := Disconnect(agent, ReasonClient); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	row, err := cumulative.GetDay(agent, day)
	if err != nil || row == nil {
		t.Fatalf("GetDay failed: %v %v", row, err)
	}
	if row.WorkSeconds != 10800 || row.PresenceSeconds != 10800 {
		t.Fatalf("post-correction accumulation = %+v, want 10800/10800", row)
	}
}
