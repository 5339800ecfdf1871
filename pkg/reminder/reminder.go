// Package reminder plans the concrete reminder firing times for a business
// day and keeps the delivery collaborator in sync via cancel-then-reschedule.
package reminder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/window"
)

const (
	dayPrefix   = "habit-day-"
	nightPrefix = "habit-night-"

	// Fixed identifiers from releases that scheduled a single repeating
	// reminder of each kind. Still cancelled on every reschedule.
	legacyDayID   = "habit-day-reminder"
	legacyNightID = "habit-night-reminder"

	minutesPerDay = 24 * 60
)

// DayReminderID is the stable identifier for the daytime reminder of a day.
func DayReminderID(dayKey string) string {
	return dayPrefix + dayKey
}

// NightReminderID is the stable identifier for one nightly round.
func NightReminderID(dayKey string, round int) string {
	return fmt.Sprintf("%s%s_%d", nightPrefix, dayKey, round)
}

// Request is an ephemeral reminder handed to the delivery collaborator.
// Identifiers encode the day key (and round), so scheduling the same day
// twice supersedes rather than duplicates.
type Request struct {
	Identifier string
	FireAt     time.Time
	Title      string
	Body       string
}

// Delivery is the notification-delivery collaborator. Add failures are
// treated as best-effort by the planner.
type Delivery interface {
	Authorized(ctx context.Context) bool
	Add(ctx context.Context, req Request) error
	CancelPending(ctx context.Context, ids []string)
	Pending(ctx context.Context) []string
}

// Ledger persists the identifiers submitted by the previous scheduling run
// so they can be cancelled before the next one.
type Ledger interface {
	LoadIDs(ctx context.Context) ([]string, error)
	SaveIDs(ctx context.Context, ids []string) error
}

// NightReminderTimes returns the minute-of-day values for the nightly
// reminder rounds: every interval minutes from the window start through the
// window end, wrapping past midnight when the window does. The window end is
// always included; a wrapped interval landing exactly on midnight is dropped
// when the end itself is later than midnight.
func NightReminderTimes(startMinutes, endMinutes, intervalMinutes int) []int {
	if intervalMinutes <= 0 {
		intervalMinutes = 30
	}

	span := 0
	switch {
	case startMinutes == endMinutes:
		span = 0
	case startMinutes < endMinutes:
		span = endMinutes - startMinutes
	default:
		span = minutesPerDay - startMinutes + endMinutes
	}

	var times []int
	for offset := 0; offset <= span; offset += intervalMinutes {
		times = append(times, (startMinutes+offset)%minutesPerDay)
	}

	if span > 0 {
		end := endMinutes % minutesPerDay
		present := false
		for _, m := range times {
			if m == end {
				present = true
				break
			}
		}
		if !present {
			times = append(times, end)
		}
	}

	if startMinutes > endMinutes && endMinutes > 0 {
		kept := times[:0]
		for _, m := range times {
			if m != 0 {
				kept = append(kept, m)
			}
		}
		times = kept
	}
	return times
}

// PlanInput selects what the reschedule should cover for the target day.
type PlanInput struct {
	// Day is local midnight of the target business day.
	Day time.Time
	// NeedsDay schedules the one-shot daytime commitment reminder.
	NeedsDay bool
	// NeedsNight schedules the nightly confirmation rounds.
	NeedsNight bool
}

// Planner performs idempotent cancel-then-reschedule against the delivery
// collaborator.
type Planner struct {
	Delivery Delivery
	Ledger   Ledger
}

// Reschedule cancels everything scheduled by prior runs (the legacy fixed
// identifiers, the ledger from the last run, and any pending ids that carry
// our prefixes) and submits a fresh request set. Without delivery
// authorization the whole call is a no-op. Individual add failures are
// swallowed; the next natural trigger recovers.
func (p *Planner) Reschedule(ctx context.Context, s habit.Settings, in PlanInput, now time.Time) error {
	if p.Delivery == nil {
		return nil
	}
	if !p.Delivery.Authorized(ctx) {
		return nil
	}

	p.cancelPrevious(ctx)

	if !s.Enabled {
		if p.Ledger != nil {
			return p.Ledger.SaveIDs(ctx, nil)
		}
		return nil
	}

	requests := p.build(s, in, now)
	scheduled := make([]string, 0, len(requests))
	for _, req := range requests {
		if err := p.Delivery.Add(ctx, req); err != nil {
			// Best effort; the next reschedule trigger repairs the set.
			continue
		}
		scheduled = append(scheduled, req.Identifier)
	}

	if p.Ledger != nil {
		return p.Ledger.SaveIDs(ctx, scheduled)
	}
	return nil
}

func (p *Planner) cancelPrevious(ctx context.Context) {
	ids := []string{legacyDayID, legacyNightID}
	if p.Ledger != nil {
		if prior, err := p.Ledger.LoadIDs(ctx); err == nil {
			ids = append(ids, prior...)
		}
	}
	for _, id := range p.Delivery.Pending(ctx) {
		if strings.HasPrefix(id, dayPrefix) || strings.HasPrefix(id, nightPrefix) {
			ids = append(ids, id)
		}
	}
	p.Delivery.CancelPending(ctx, ids)
}

// build computes the request set for the target day. Requests whose firing
// instant is not after now are omitted.
func (p *Planner) build(s habit.Settings, in PlanInput, now time.Time) []Request {
	day := in.Day
	dayKey := day.Format("2006-01-02")
	parsed := window.Parse(s.Window())

	var requests []Request

	if in.NeedsDay {
		if m, ok := window.MinutesOf(s.DayReminder); ok {
			fireAt := day.Add(time.Duration(m) * time.Minute)
			if fireAt.After(now) {
				requests = append(requests, Request{
					Identifier: DayReminderID(dayKey),
					FireAt:     fireAt,
					Title:      "Light check-in",
					Body:       "Make today's commitment.",
				})
			}
		}
	}

	if in.NeedsNight {
		for i, m := range NightReminderTimes(parsed.StartMinutes, parsed.EndMinutes, s.Interval()) {
			fireDay := day
			if parsed.CrossesMidnight && m <= parsed.EndMinutes {
				fireDay = day.AddDate(0, 0, 1)
			}
			fireAt := fireDay.Add(time.Duration(m) * time.Minute)
			if !fireAt.After(now) {
				continue
			}
			requests = append(requests, Request{
				Identifier: NightReminderID(dayKey, i),
				FireAt:     fireAt,
				Title:      "Confirm tonight",
				Body:       "Confirm today's light habit before the window closes.",
			})
		}
	}
	return requests
}
