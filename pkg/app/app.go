// Package app provides the high-level habit operations shared by the CLI
// and the live UI: daytime commitment, nightly confirmation, settings
// changes, and the sync/reminder plumbing they drive.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/pending"
	"tableflip.dev/lumen/pkg/phase"
	"tableflip.dev/lumen/pkg/reminder"
	"tableflip.dev/lumen/pkg/store"
	"tableflip.dev/lumen/pkg/syncer"
	"tableflip.dev/lumen/pkg/window"
)

var (
	// ErrAfterCutoff means the day can no longer be changed.
	ErrAfterCutoff = errors.New("app: the day's cutoff has passed")
	// ErrTooEarly means confirmation has not opened yet.
	ErrTooEarly = errors.New("app: confirmation has not opened yet")
	// ErrExpired means the confirmation window closed.
	ErrExpired = errors.New("app: the confirmation window has closed")
	// ErrNotCommitted means there is nothing to confirm.
	ErrNotCommitted = errors.New("app: no commitment was made today")
	// ErrAlreadyConcluded means the day already reached a terminal state.
	ErrAlreadyConcluded = errors.New("app: the day is already concluded")
)

// Service wires the scheduling core and the sync queue over persistence.
type Service struct {
	Persistence store.Persistence
	Queue       *pending.Queue
	Replayer    *syncer.Replayer
	Planner     *reminder.Planner
	Zone        *time.Location

	now     func() time.Time
	syncing atomic.Bool

	boundaryMu    sync.Mutex
	boundaryTimer *time.Timer
	boundaryOn    bool
}

// New assembles a Service from persistence and an optional remote.
func New(p store.Persistence, remote syncer.Remote, zone *time.Location) *Service {
	if zone == nil {
		zone = time.Local
	}
	queue := pending.NewQueue(p.PendingQueue())
	return &Service{
		Persistence: p,
		Queue:       queue,
		Replayer:    syncer.New(queue, remote),
		Planner:     &reminder.Planner{Delivery: p.Delivery(), Ledger: p.ReminderLedger()},
		Zone:        zone,
		now:         time.Now,
	}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
	s.Replayer.SetClock(now)
}

// Settings returns the stored settings, minting defaults (and a local user
// identity) on first use.
func (s *Service) Settings(ctx context.Context) (habit.Settings, error) {
	stored, err := s.Persistence.Settings(ctx)
	if err != nil {
		return habit.Settings{}, err
	}
	if stored != nil {
		return *stored, nil
	}
	fresh := habit.DefaultSettings(habit.NewUserID())
	fresh.UpdatedAt = s.now()
	if err := s.Persistence.StoreSettings(fresh); err != nil {
		return habit.Settings{}, err
	}
	return fresh, nil
}

// Timeline evaluates the current nightly timeline.
func (s *Service) Timeline(ctx context.Context) (phase.Timeline, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return phase.Timeline{}, err
	}
	return phase.Evaluate(settings, s.now(), s.Zone), nil
}

// Commit records the daytime commitment for the current business day.
func (s *Service) Commit(ctx context.Context) (*habit.DayRecord, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tl := phase.Evaluate(settings, now, s.Zone)
	if tl.Phase == phase.AfterCutoff {
		return nil, ErrAfterCutoff
	}

	rec, err := s.Persistence.Record(ctx, tl.DayKey)
	if err != nil {
		return nil, err
	}
	if rec != nil && rec.Done() {
		return nil, ErrAlreadyConcluded
	}
	if rec == nil {
		rec = &habit.DayRecord{UserID: settings.UserID, Date: tl.DayKey}
	}
	at := now
	rec.State = habit.StateCommitted
	rec.CommittedAt = &at
	rec.UpdatedAt = now

	return rec, s.applyRecord(ctx, settings, *rec, now)
}

// Confirm records the nightly confirmation. Allowed in the early phase and
// inside the window; afterwards the day counts as expired.
func (s *Service) Confirm(ctx context.Context) (*habit.DayRecord, error) {
	return s.conclude(ctx, habit.StateConfirmed)
}

// Reject records an explicit decline of the nightly confirmation.
func (s *Service) Reject(ctx context.Context) (*habit.DayRecord, error) {
	return s.conclude(ctx, habit.StateRejected)
}

func (s *Service) conclude(ctx context.Context, state habit.RecordState) (*habit.DayRecord, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	tl := phase.Evaluate(settings, now, s.Zone)
	switch tl.Phase {
	case phase.BeforeEarly:
		return nil, ErrTooEarly
	case phase.AfterCutoff:
		return nil, ErrAfterCutoff
	case phase.Expired:
		return nil, ErrExpired
	}

	rec, err := s.Persistence.Record(ctx, tl.DayKey)
	if err != nil {
		return nil, err
	}
	if rec == nil || rec.State != habit.StateCommitted {
		if rec != nil && rec.Done() {
			return nil, ErrAlreadyConcluded
		}
		return nil, ErrNotCommitted
	}
	at := now
	rec.State = state
	rec.ConfirmedAt = &at
	rec.UpdatedAt = now

	return rec, s.applyRecord(ctx, settings, *rec, now)
}

// applyRecord persists the record, queues its upload, refreshes reminders,
// and kicks an immediate replay. Reminder and sync failures do not undo the
// local write.
func (s *Service) applyRecord(ctx context.Context, settings habit.Settings, rec habit.DayRecord, now time.Time) error {
	if err := s.Persistence.StoreRecord(rec); err != nil {
		return err
	}
	if err := s.enqueueRecord(ctx, rec); err != nil {
		return err
	}
	if err := s.rescheduleReminders(ctx, settings, now); err != nil {
		fmt.Fprintf(os.Stderr, "app: reschedule reminders: %v\n", err)
	}
	if _, err := s.Replayer.Replay(ctx, syncer.Options{Reason: syncer.ReasonForeground}); err != nil {
		fmt.Fprintf(os.Stderr, "app: replay: %v\n", err)
	}
	return nil
}

func (s *Service) enqueueRecord(ctx context.Context, rec habit.DayRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Queue.Enqueue(ctx, pending.Item{
		ID:      pending.ID(pending.TypeDayRecord, rec.NaturalKey()),
		Type:    pending.TypeDayRecord,
		Payload: payload,
	})
}

// UpdateSettings persists new settings, queues their upload, reschedules
// reminders, and resets the day-boundary timer.
func (s *Service) UpdateSettings(ctx context.Context, settings habit.Settings) (habit.Settings, error) {
	now := s.now()
	settings.UpdatedAt = now
	if err := s.Persistence.StoreSettings(settings); err != nil {
		return habit.Settings{}, err
	}
	payload, err := json.Marshal(settings)
	if err != nil {
		return habit.Settings{}, err
	}
	if err := s.Queue.Enqueue(ctx, pending.Item{
		ID:      pending.ID(pending.TypeSettings, settings.NaturalKey()),
		Type:    pending.TypeSettings,
		Payload: payload,
	}); err != nil {
		return habit.Settings{}, err
	}
	if err := s.rescheduleReminders(ctx, settings, now); err != nil {
		fmt.Fprintf(os.Stderr, "app: reschedule reminders: %v\n", err)
	}
	s.restartBoundaryTimer(ctx)
	if _, err := s.Replayer.Replay(ctx, syncer.Options{Reason: syncer.ReasonForeground}); err != nil {
		fmt.Fprintf(os.Stderr, "app: replay: %v\n", err)
	}
	return settings, nil
}

// rescheduleReminders recomputes the reminder set for the current business
// day from the day's habit state: the daytime reminder until a commitment
// exists, the nightly rounds while a confirmation is outstanding, nothing
// once the day concluded.
func (s *Service) rescheduleReminders(ctx context.Context, settings habit.Settings, now time.Time) error {
	parsed := window.Parse(settings.Window())
	day := window.BusinessDate(now, parsed, s.Zone)
	rec, err := s.Persistence.Record(ctx, day.Format("2006-01-02"))
	if err != nil {
		return err
	}
	in := reminder.PlanInput{
		Day:        day,
		NeedsDay:   rec == nil,
		NeedsNight: rec != nil && rec.State == habit.StateCommitted,
	}
	return s.Planner.Reschedule(ctx, settings, in, now)
}
