package session

import (
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)
	shiftStart := day.Add(9 * time.Hour)
	shiftEnd := day.Add(18 * time.Hour)

	tests := []struct {
		name       string
		start, end time.Time
		wantStart  time.Time
		wantEnd    time.Time
	}{
		{
			name:      "inside window unchanged",
			start:     day.Add(10 * time.Hour),
			end:       day.Add(11 * time.Hour),
			wantStart: day.Add(10 * time.Hour),
			wantEnd:   day.Add(11 * time.Hour),
		},
		{
			name:      "early start lifted to shift start",
			start:     day.Add(8*time.Hour + 45*time.Minute),
			end:       day.Add(9*time.Hour + 5*time.Minute),
			wantStart: shiftStart,
			wantEnd:   day.Add(9*time.Hour + 5*time.Minute),
		},
		{
			name:      "late end cut to shift end",
			start:     day.Add(17 * time.Hour),
			end:       day.Add(19 * time.Hour),
			wantStart: day.Add(17 * time.Hour),
			wantEnd:   shiftEnd,
		},
		{
			name:      "both bounds clamped",
			start:     day.Add(8 * time.Hour),
			end:       day.Add(20 * time.Hour),
			wantStart: shiftStart,
			wantEnd:   shiftEnd,
		},
		{
			name:      "entirely before shift collapses at shift start",
			start:     day.Add(7 * time.Hour),
			end:       day.Add(8 * time.Hour),
			wantStart: shiftStart,
			wantEnd:   shiftStart,
		},
		{
			name:      "entirely after shift collapses at shift end",
			start:     day.Add(19 * time.Hour),
			end:       day.Add(20 * time.Hour),
			wantStart: shiftEnd,
			wantEnd:   shiftEnd,
		},
		{
			name:      "zero length inside window preserved",
			start:     day.Add(12 * time.Hour),
			end:       day.Add(12 * time.Hour),
			wantStart: day.Add(12 * time.Hour),
			wantEnd:   day.Add(12 * time.Hour),
		},
		{
			name:      "start exactly at shift end collapses at shift end",
			start:     shiftEnd,
			end:       day.Add(18*time.Hour + 30*time.Minute),
			wantStart: shiftEnd,
			wantEnd:   shiftEnd,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStart, gotEnd := Clamp(tt.start, tt.end, shiftStart, shiftEnd)
			if !gotStart.Equal(tt.wantStart) || !gotEnd.Equal(tt.wantEnd) {
				t.Fatalf("Clamp(%v, %v) = (%v, %v), want (%v, %v)",
					tt.start, tt.end, gotStart, gotEnd, tt.wantStart, tt.wantEnd)
			}
			if gotEnd.Before(gotStart) {
				t.Fatalf("Clamp produced end before start: (%v, %v)", gotStart, gotEnd)
			}
		})
	}
}

func TestClampStart(t *testing.T) {
	shiftStart := time.Date(2025, 3, 10, 9, 0, 0, 0, time.Local)
	early := shiftStart.Add(-30 * time.Minute)
	if got := clampStart(early, shiftStart); !got.Equal(shiftStart) {
		t.Fatalf("clampStart(%v) = %v, want %v", early, got, shiftStart)
	}
	late := shiftStart.Add(time.Hour)
	if got := clampStart(late, shiftStart); !got.Equal(late) {
		t.Fatalf("clampStart(%v) = %v, want unchanged", late, got)
	}
}
