package reminder

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"tableflip.dev/lumen/pkg/habit"
)

type fakeDelivery struct {
	authorized bool
	addErr     map[string]error

	added     []Request
	cancelled []string
	pending   []string
}

func (f *fakeDelivery) Authorized(_ context.Context) bool { return f.authorized }

func (f *fakeDelivery) Add(_ context.Context, req Request) error {
	if err := f.addErr[req.Identifier]; err != nil {
		return err
	}
	f.added = append(f.added, req)
	return nil
}

func (f *fakeDelivery) CancelPending(_ context.Context, ids []string) {
	f.cancelled = append(f.cancelled, ids...)
}

func (f *fakeDelivery) Pending(_ context.Context) []string { return f.pending }

type fakeLedger struct {
	ids []string
}

func (f *fakeLedger) LoadIDs(_ context.Context) ([]string, error) {
	return append([]string(nil), f.ids...), nil
}

func (f *fakeLedger) SaveIDs(_ context.Context, ids []string) error {
	f.ids = append([]string(nil), ids...)
	return nil
}

func TestNightReminderTimes(t *testing.T) {
	tests := []struct {
		name                 string
		start, end, interval int
		want                 []int
	}{
		{"wraparound 22:00-00:30 every 30m", 1320, 30, 30, []int{1320, 1350, 1380, 1410, 30}},
		{"same day 08:00-10:00 hourly", 480, 600, 60, []int{480, 540, 600}},
		{"end appended when interval overshoots", 480, 590, 60, []int{480, 540, 590}},
		{"degenerate window single round", 600, 600, 30, []int{600}},
		{"midnight value dropped when end past midnight", 1410, 60, 30, []int{1410, 30, 60}},
		{"midnight end survives", 1380, 0, 30, []int{1380, 1410, 0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NightReminderTimes(tc.start, tc.end, tc.interval)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("NightReminderTimes(%d, %d, %d) = %v, want %v",
					tc.start, tc.end, tc.interval, got, tc.want)
			}
		})
	}
}

func testSettings() habit.Settings {
	s := habit.DefaultSettings("u1")
	s.DayReminder = "09:00"
	s.NightStart = "22:00"
	s.NightEnd = "00:30"
	s.IntervalMinutes = 30
	return s
}

func TestRescheduleNoopWithoutAuthorization(t *testing.T) {
	d := &fakeDelivery{authorized: false}
	planner := &Planner{Delivery: d, Ledger: &fakeLedger{}}

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	err := planner.Reschedule(context.Background(), testSettings(),
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, day)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.added) != 0 || len(d.cancelled) != 0 {
		t.Errorf("unauthorized reschedule must not touch delivery: added=%v cancelled=%v",
			d.added, d.cancelled)
	}
}

func TestRescheduleCancelsBeforeAdding(t *testing.T) {
	ledger := &fakeLedger{ids: []string{"habit-night-2024-03-04_0"}}
	d := &fakeDelivery{
		authorized: true,
		pending:    []string{"habit-day-2024-03-04", "someone-elses-id"},
	}
	planner := &Planner{Delivery: d, Ledger: ledger}

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(8 * time.Hour)
	if err := planner.Reschedule(context.Background(), testSettings(),
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, now); err != nil {
		t.Fatal(err)
	}

	cancelled := map[string]bool{}
	for _, id := range d.cancelled {
		cancelled[id] = true
	}
	for _, want := range []string{
		"habit-day-reminder", "habit-night-reminder",
		"habit-night-2024-03-04_0", "habit-day-2024-03-04",
	} {
		if !cancelled[want] {
			t.Errorf("id %q not cancelled", want)
		}
	}
	if cancelled["someone-elses-id"] {
		t.Error("cancelled an identifier outside our prefixes")
	}
}

func TestRescheduleRequestSet(t *testing.T) {
	ledger := &fakeLedger{}
	d := &fakeDelivery{authorized: true}
	planner := &Planner{Delivery: d, Ledger: ledger}

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(8 * time.Hour) // 08:00, before the day reminder
	if err := planner.Reschedule(context.Background(), testSettings(),
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, now); err != nil {
		t.Fatal(err)
	}

	// Day reminder at 09:00, night rounds 22:00 22:30 23:00 23:30 00:00(next
	// day, dropped) ... per NightReminderTimes: 1320 1350 1380 1410 30.
	ids := make([]string, 0, len(d.added))
	for _, req := range d.added {
		ids = append(ids, req.Identifier)
	}
	sort.Strings(ids)
	want := []string{
		"habit-day-2024-03-05",
		"habit-night-2024-03-05_0",
		"habit-night-2024-03-05_1",
		"habit-night-2024-03-05_2",
		"habit-night-2024-03-05_3",
		"habit-night-2024-03-05_4",
	}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("scheduled ids = %v, want %v", ids, want)
	}

	// The wrapped 00:30 round fires on the next calendar day.
	for _, req := range d.added {
		if req.Identifier == "habit-night-2024-03-05_4" {
			wantAt := time.Date(2024, 3, 6, 0, 30, 0, 0, time.UTC)
			if !req.FireAt.Equal(wantAt) {
				t.Errorf("wrapped round fires at %v, want %v", req.FireAt, wantAt)
			}
		}
		if !req.FireAt.After(now) {
			t.Errorf("request %s fires in the past: %v", req.Identifier, req.FireAt)
		}
	}

	if !reflect.DeepEqual(ledger.ids, ids) {
		sorted := append([]string(nil), ledger.ids...)
		sort.Strings(sorted)
		if !reflect.DeepEqual(sorted, want) {
			t.Errorf("ledger = %v, want the scheduled set", ledger.ids)
		}
	}
}

func TestRescheduleSkipsPastInstants(t *testing.T) {
	d := &fakeDelivery{authorized: true}
	planner := &Planner{Delivery: d, Ledger: &fakeLedger{}}

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := day.Add(23 * time.Hour) // 23:00, day reminder and two rounds gone
	if err := planner.Reschedule(context.Background(), testSettings(),
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, now); err != nil {
		t.Fatal(err)
	}
	for _, req := range d.added {
		if !req.FireAt.After(now) {
			t.Errorf("request %s fires in the past", req.Identifier)
		}
	}
	// Remaining rounds: 23:30 (round 3) and 00:30 next day (round 4).
	if len(d.added) != 2 {
		t.Errorf("added %d requests, want 2", len(d.added))
	}
}

func TestRescheduleDisabledCancelsOnly(t *testing.T) {
	ledger := &fakeLedger{ids: []string{"habit-day-2024-03-04"}}
	d := &fakeDelivery{authorized: true}
	planner := &Planner{Delivery: d, Ledger: ledger}

	s := testSettings()
	s.Enabled = false
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if err := planner.Reschedule(context.Background(), s,
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, day); err != nil {
		t.Fatal(err)
	}
	if len(d.added) != 0 {
		t.Errorf("disabled settings scheduled %v", d.added)
	}
	if len(d.cancelled) == 0 {
		t.Error("disabled settings should still cancel prior requests")
	}
	if len(ledger.ids) != 0 {
		t.Errorf("ledger = %v, want cleared", ledger.ids)
	}
}

func TestRescheduleSwallowsAddFailures(t *testing.T) {
	ledger := &fakeLedger{}
	d := &fakeDelivery{
		authorized: true,
		addErr:     map[string]error{"habit-day-2024-03-05": errors.New("delivery refused")},
	}
	planner := &Planner{Delivery: d, Ledger: ledger}

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	err := planner.Reschedule(context.Background(), testSettings(),
		PlanInput{Day: day, NeedsDay: true, NeedsNight: true}, day)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range ledger.ids {
		if id == "habit-day-2024-03-05" {
			t.Error("failed request recorded in ledger")
		}
	}
	if len(d.added) == 0 {
		t.Error("other requests should still be scheduled")
	}
}
