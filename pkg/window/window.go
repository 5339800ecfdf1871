// Package window computes business-day attribution for night windows that may
// cross midnight. All functions are pure; malformed input falls back to the
// default window so a result always exists.
package window

import (
	"strings"
	"time"
)

const (
	// DefaultStart and DefaultEnd are the fallback night window applied when
	// the configured one does not parse or is degenerate.
	DefaultStart = "22:30"
	DefaultEnd   = "00:30"

	minutesPerDay = 24 * 60

	layoutISO = "2006-01-02"
)

// Window is a configured night window, both bounds local wall-clock "HH:MM".
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Default returns the fallback night window.
func Default() Window {
	return Window{Start: DefaultStart, End: DefaultEnd}
}

// Parsed is a window reduced to minute-of-day arithmetic.
type Parsed struct {
	StartMinutes    int
	EndMinutes      int
	CrossesMidnight bool
}

// MinutesOf parses a wall-clock time as minutes into the day. The primary
// format is 24-hour "HH:MM"; a 12-hour "3:04 PM" form is accepted as a
// fallback. The second return is false for malformed input.
func MinutesOf(s string) (int, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, false
	}
	t, err := time.Parse("15:04", trimmed)
	if err != nil {
		t, err = time.Parse("3:04 PM", strings.ToUpper(trimmed))
		if err != nil {
			return 0, false
		}
	}
	return t.Hour()*60 + t.Minute(), true
}

// Parse reduces a Window to minutes. A window that fails to parse, or whose
// bounds are equal, is replaced by the default window first.
func Parse(w Window) Parsed {
	start, okStart := MinutesOf(w.Start)
	end, okEnd := MinutesOf(w.End)
	if !okStart || !okEnd || start == end {
		start, _ = MinutesOf(DefaultStart)
		end, _ = MinutesOf(DefaultEnd)
	}
	return Parsed{
		StartMinutes:    start,
		EndMinutes:      end,
		CrossesMidnight: start > end,
	}
}

// Duration is the window length in minutes, always > 0.
func (p Parsed) Duration() int {
	if p.CrossesMidnight {
		return minutesPerDay - p.StartMinutes + p.EndMinutes
	}
	return p.EndMinutes - p.StartMinutes
}

// minutesInto is t's wall-clock position within its calendar day.
func minutesInto(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// BusinessDate returns midnight (in loc) of the business day the instant
// belongs to. Instants in the early-morning tail of a midnight-crossing
// window are attributed to the previous calendar day, so a 00:15 confirmation
// still counts toward yesterday's night.
func BusinessDate(t time.Time, p Parsed, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if p.CrossesMidnight && minutesInto(local) <= p.EndMinutes {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

// DayKey returns the canonical "YYYY-MM-DD" key for the business day the
// instant belongs to.
func DayKey(t time.Time, p Parsed, loc *time.Location) string {
	return BusinessDate(t, p, loc).Format(layoutISO)
}

// NextDayBoundary returns the next instant after which DayKey changes: one
// minute past the window end for midnight-crossing windows, otherwise the
// next local midnight.
func NextDayBoundary(after time.Time, p Parsed, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	boundary := minutesPerDay
	if p.CrossesMidnight {
		boundary = p.EndMinutes + 1
	}
	local := after.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	next := midnight.Add(time.Duration(boundary) * time.Minute)
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RecentDayKeys returns the n business-day keys ending at the reference
// instant's day, most recent first.
func RecentDayKeys(n int, reference time.Time, p Parsed, loc *time.Location) []string {
	if n <= 0 {
		return nil
	}
	anchor := BusinessDate(reference, p, loc)
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		keys = append(keys, anchor.AddDate(0, 0, -i).Format(layoutISO))
	}
	return keys
}
