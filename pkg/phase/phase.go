// Package phase evaluates the five-state nightly timeline for a business day.
package phase

import (
	"time"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/window"
)

// Phase is the position within a day's confirmation timeline.
type Phase int

const (
	// BeforeEarly is the daytime stretch before confirmation opens at all.
	BeforeEarly Phase = iota
	// Early allows an eager confirmation ahead of the night window proper.
	Early
	// InWindow is the configured night window.
	InWindow
	// Expired means the window closed but the day's cutoff has not passed.
	Expired
	// AfterCutoff is terminal for the day.
	AfterCutoff
)

func (p Phase) String() string {
	switch p {
	case BeforeEarly:
		return "before-early"
	case Early:
		return "early"
	case InWindow:
		return "in-window"
	case Expired:
		return "expired"
	case AfterCutoff:
		return "after-cutoff"
	}
	return "unknown"
}

// IsExpired reports whether the confirmation opportunity has passed.
func (p Phase) IsExpired() bool {
	return p == Expired || p == AfterCutoff
}

// Timeline is the fully resolved schedule for one business day, computed
// fresh per evaluation and never persisted.
type Timeline struct {
	DayKey     string
	EarlyStart time.Time
	NightStart time.Time
	NightEnd   time.Time
	Cutoff     time.Time
	Now        time.Time
	Phase      Phase
}

const (
	earlyOffset    = 6 * time.Hour
	earlyFloor     = 17 * time.Hour // never before 17:00 local
	cutoffOffset   = 5 * time.Hour  // past the next day's start
	defaultDayMins = 9 * 60
)

// Evaluate resolves the timeline for the business day containing now.
func Evaluate(s habit.Settings, now time.Time, loc *time.Location) Timeline {
	if loc == nil {
		loc = time.Local
	}
	p := window.Parse(s.Window())
	return For(s, window.BusinessDate(now, p, loc), now)
}

// For resolves the timeline for a specific business day (dayStart is local
// midnight of that day). Callers holding a day record evaluate against the
// record's own day, so a record can still be seen as expired or past cutoff
// after the live day key has rolled over. Boundaries are checked latest
// first so overlapping conditions resolve deterministically.
func For(s habit.Settings, dayStart, now time.Time) Timeline {
	p := window.Parse(s.Window())

	nightStart := dayStart.Add(time.Duration(p.StartMinutes) * time.Minute)
	nightEnd := dayStart.Add(time.Duration(p.EndMinutes) * time.Minute)
	if p.CrossesMidnight {
		nightEnd = dayStart.AddDate(0, 0, 1).Add(time.Duration(p.EndMinutes) * time.Minute)
	}

	dayMins, ok := window.MinutesOf(s.DayReminder)
	if !ok {
		dayMins = defaultDayMins
	}
	earlyStart := dayStart.Add(time.Duration(dayMins)*time.Minute + earlyOffset)
	if floor := dayStart.Add(earlyFloor); earlyStart.Before(floor) {
		earlyStart = floor
	}

	cutoff := dayStart.AddDate(0, 0, 1).Add(cutoffOffset)

	tl := Timeline{
		DayKey:     dayStart.Format("2006-01-02"),
		EarlyStart: earlyStart,
		NightStart: nightStart,
		NightEnd:   nightEnd,
		Cutoff:     cutoff,
		Now:        now,
	}

	switch {
	case !now.Before(cutoff):
		tl.Phase = AfterCutoff
	case now.After(nightEnd):
		tl.Phase = Expired
	case !now.Before(nightStart):
		tl.Phase = InWindow
	case !now.Before(earlyStart):
		tl.Phase = Early
	default:
		tl.Phase = BeforeEarly
	}
	return tl
}
