package window

import (
	"reflect"
	"testing"
	"time"
)

func TestMinutesOf(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"00:00", 0, true},
		{"22:30", 1350, true},
		{"9:05", 545, true},
		{"23:59", 1439, true},
		{"9:05 pm", 1265, true},
		{"12:00 AM", 0, true},
		{"", 0, false},
		{"25:00", 0, false},
		{"noon", 0, false},
		{"12:60", 0, false},
	}
	for _, tc := range tests {
		got, ok := MinutesOf(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("MinutesOf(%q) = (%d, %t), want (%d, %t)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   Window
		want Parsed
	}{
		{
			name: "same day",
			in:   Window{Start: "08:00", End: "10:00"},
			want: Parsed{StartMinutes: 480, EndMinutes: 600},
		},
		{
			name: "crosses midnight",
			in:   Window{Start: "22:00", End: "00:30"},
			want: Parsed{StartMinutes: 1320, EndMinutes: 30, CrossesMidnight: true},
		},
		{
			name: "malformed falls back to default",
			in:   Window{Start: "later", End: "00:30"},
			want: Parsed{StartMinutes: 1350, EndMinutes: 30, CrossesMidnight: true},
		},
		{
			name: "degenerate falls back to default",
			in:   Window{Start: "21:00", End: "21:00"},
			want: Parsed{StartMinutes: 1350, EndMinutes: 30, CrossesMidnight: true},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse(tc.in); got != tc.want {
				t.Errorf("Parse(%v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestDuration(t *testing.T) {
	if d := Parse(Window{Start: "22:00", End: "00:30"}).Duration(); d != 150 {
		t.Errorf("wraparound duration = %d, want 150", d)
	}
	if d := Parse(Window{Start: "08:00", End: "10:00"}).Duration(); d != 120 {
		t.Errorf("same-day duration = %d, want 120", d)
	}
}

func TestDayKeyEarlyMorningBelongsToPreviousDay(t *testing.T) {
	p := Parse(Window{Start: "22:30", End: "00:30"})
	instant := time.Date(2024, 1, 2, 0, 15, 0, 0, time.UTC)
	if got := DayKey(instant, p, time.UTC); got != "2024-01-01" {
		t.Errorf("DayKey = %q, want 2024-01-01", got)
	}
	// Just past the window end the key flips to the calendar day.
	after := time.Date(2024, 1, 2, 0, 31, 0, 0, time.UTC)
	if got := DayKey(after, p, time.UTC); got != "2024-01-02" {
		t.Errorf("DayKey = %q, want 2024-01-02", got)
	}
}

func TestDayKeySameDayWindow(t *testing.T) {
	p := Parse(Window{Start: "20:00", End: "22:00"})
	instant := time.Date(2024, 1, 2, 0, 15, 0, 0, time.UTC)
	if got := DayKey(instant, p, time.UTC); got != "2024-01-02" {
		t.Errorf("DayKey = %q, want 2024-01-02", got)
	}
}

func TestNextDayBoundary(t *testing.T) {
	p := Parse(Window{Start: "22:00", End: "00:30"})
	now := time.Date(2024, 1, 1, 23, 45, 0, 0, time.UTC)
	want := time.Date(2024, 1, 2, 0, 31, 0, 0, time.UTC)
	if got := NextDayBoundary(now, p, time.UTC); !got.Equal(want) {
		t.Errorf("NextDayBoundary = %v, want %v", got, want)
	}

	// Before the boundary on the same calendar day, no rollover.
	now = time.Date(2024, 1, 2, 0, 10, 0, 0, time.UTC)
	if got := NextDayBoundary(now, p, time.UTC); !got.Equal(want) {
		t.Errorf("NextDayBoundary = %v, want %v", got, want)
	}

	// Non-crossing windows roll at midnight.
	p = Parse(Window{Start: "20:00", End: "22:00"})
	now = time.Date(2024, 1, 1, 23, 45, 0, 0, time.UTC)
	want = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := NextDayBoundary(now, p, time.UTC); !got.Equal(want) {
		t.Errorf("NextDayBoundary = %v, want %v", got, want)
	}
}

func TestRecentDayKeys(t *testing.T) {
	p := Parse(Window{Start: "22:30", End: "00:30"})
	ref := time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC)
	want := []string{"2024-02-10", "2024-02-09", "2024-02-08"}
	if got := RecentDayKeys(3, ref, p, time.UTC); !reflect.DeepEqual(got, want) {
		t.Errorf("RecentDayKeys = %v, want %v", got, want)
	}
	if got := RecentDayKeys(0, ref, p, time.UTC); got != nil {
		t.Errorf("RecentDayKeys(0) = %v, want nil", got)
	}
}

func TestRecentDayKeysEarlyMorningAnchor(t *testing.T) {
	p := Parse(Window{Start: "22:30", End: "00:30"})
	ref := time.Date(2024, 2, 10, 0, 15, 0, 0, time.UTC)
	want := []string{"2024-02-09", "2024-02-08"}
	if got := RecentDayKeys(2, ref, p, time.UTC); !reflect.DeepEqual(got, want) {
		t.Errorf("RecentDayKeys = %v, want %v", got, want)
	}
}
