package phase

import (
	"testing"
	"time"

	"tableflip.dev/lumen/pkg/habit"
)

func testSettings() habit.Settings {
	s := habit.DefaultSettings("u1")
	s.DayReminder = "09:00"
	s.NightStart = "22:30"
	s.NightEnd = "00:30"
	return s
}

func at(h, m int) time.Time {
	return time.Date(2024, 3, 5, h, m, 0, 0, time.UTC)
}

func TestEvaluateBoundaries(t *testing.T) {
	s := testSettings()
	tests := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"midday", at(12, 0), BeforeEarly},
		{"just before early start", at(14, 59), BeforeEarly},
		// earlyStart = max(09:00+6h, 17:00) = 17:00
		{"at early start", at(17, 0), Early},
		{"late evening before window", at(22, 29), Early},
		{"window opens", at(22, 30), InWindow},
		{"past midnight still in window", time.Date(2024, 3, 6, 0, 15, 0, 0, time.UTC), InWindow},
		{"window end inclusive", time.Date(2024, 3, 6, 0, 30, 0, 0, time.UTC), InWindow},
		{"expired after window", time.Date(2024, 3, 6, 0, 31, 0, 0, time.UTC), Expired},
		{"just before cutoff", time.Date(2024, 3, 6, 4, 59, 0, 0, time.UTC), Expired},
		{"cutoff", time.Date(2024, 3, 6, 5, 0, 0, 0, time.UTC), AfterCutoff},
	}
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tl := For(s, day, tc.now)
			if tl.Phase != tc.want {
				t.Errorf("For(%v) phase = %v, want %v", tc.now, tl.Phase, tc.want)
			}
			if tl.DayKey != "2024-03-05" {
				t.Errorf("For(%v) day key = %q, want 2024-03-05", tc.now, tl.DayKey)
			}
		})
	}
}

func TestEvaluateAnchorsOnBusinessDay(t *testing.T) {
	s := testSettings()
	// 00:15 falls inside the tail of the crossing window, so the timeline
	// is the previous calendar day's.
	tl := Evaluate(s, time.Date(2024, 3, 6, 0, 15, 0, 0, time.UTC), time.UTC)
	if tl.DayKey != "2024-03-05" || tl.Phase != InWindow {
		t.Errorf("got (%q, %v), want (2024-03-05, InWindow)", tl.DayKey, tl.Phase)
	}
}

func TestEvaluateEarlyStartFollowsDayReminder(t *testing.T) {
	s := testSettings()
	s.DayReminder = "13:00" // 13:00+6h beats the 17:00 floor
	tl := Evaluate(s, at(18, 30), time.UTC)
	if tl.Phase != BeforeEarly {
		t.Errorf("phase = %v, want BeforeEarly before 19:00", tl.Phase)
	}
	tl = Evaluate(s, at(19, 0), time.UTC)
	if tl.Phase != Early {
		t.Errorf("phase = %v, want Early at 19:00", tl.Phase)
	}
}

func TestPhaseMonotonicity(t *testing.T) {
	s := testSettings()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 3, 5, 6, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 6, 6, 0, 0, 0, time.UTC)

	prev := BeforeEarly
	seen := map[Phase]bool{BeforeEarly: true}
	for now := start; !now.After(end); now = now.Add(time.Minute) {
		got := For(s, day, now).Phase
		if got < prev {
			t.Fatalf("phase went backward at %v: %v after %v", now, got, prev)
		}
		seen[got] = true
		prev = got
	}
	for _, want := range []Phase{BeforeEarly, Early, InWindow, Expired, AfterCutoff} {
		if !seen[want] {
			t.Errorf("phase %v never visited", want)
		}
	}
}

func TestForKeepsExpiredDayPastRollover(t *testing.T) {
	s := testSettings()
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	// 02:00 the next calendar morning: the live day key has moved on, but
	// the record for the 5th is still merely expired until 05:00.
	now := time.Date(2024, 3, 6, 2, 0, 0, 0, time.UTC)
	if got := For(s, day, now).Phase; got != Expired {
		t.Errorf("phase = %v, want Expired", got)
	}
	now = time.Date(2024, 3, 6, 5, 0, 0, 0, time.UTC)
	if got := For(s, day, now).Phase; got != AfterCutoff {
		t.Errorf("phase = %v, want AfterCutoff", got)
	}
}

func TestIsExpired(t *testing.T) {
	if BeforeEarly.IsExpired() || Early.IsExpired() || InWindow.IsExpired() {
		t.Error("pre-window phases must not report expired")
	}
	if !Expired.IsExpired() || !AfterCutoff.IsExpired() {
		t.Error("post-window phases must report expired")
	}
}
