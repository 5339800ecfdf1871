package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"tableflip.dev/lumen/pkg/syncer"
	"tableflip.dev/lumen/pkg/window"
)

// Trigger is an external event that drives a replay. Making the trigger set
// explicit keeps every call site testable; nothing replays on its own.
type Trigger string

const (
	// TriggerForeground fires when the app becomes active.
	TriggerForeground Trigger = "foreground"
	// TriggerConnectivity fires when network connectivity returns.
	TriggerConnectivity Trigger = "connectivity"
	// TriggerManual is a user-initiated retry; it forces every item due.
	TriggerManual Trigger = "manual"
	// TriggerDayBoundary fires when the business day rolls over. Besides the
	// replay it refreshes the reminder schedule for the new day.
	TriggerDayBoundary Trigger = "day-boundary"
)

// HandleTrigger runs the replay for the given trigger and performs the
// trigger's side effects (day-boundary reschedules reminders for the fresh
// day).
func (s *Service) HandleTrigger(ctx context.Context, tr Trigger) (syncer.Snapshot, error) {
	opts := syncer.Options{Reason: syncer.ReasonForeground}
	switch tr {
	case TriggerConnectivity:
		opts.Reason = syncer.ReasonConnectivity
	case TriggerManual:
		opts.Reason = syncer.ReasonManual
		opts.Force = true
	case TriggerDayBoundary:
		opts.Reason = syncer.ReasonDayBoundary
		if settings, err := s.Settings(ctx); err == nil {
			if err := s.rescheduleReminders(ctx, settings, s.now()); err != nil {
				fmt.Fprintf(os.Stderr, "app: day-boundary reschedule: %v\n", err)
			}
		}
	}

	s.syncing.Store(true)
	defer s.syncing.Store(false)
	return s.Replayer.Replay(ctx, opts)
}

// StartDayBoundaryTimer arms the day-rollover task: at the next boundary it
// fires TriggerDayBoundary and re-arms for the following day. Settings
// changes restart it through UpdateSettings; the unit of work is idempotent,
// so cancel-and-replace is always safe. The timer stops when ctx ends.
func (s *Service) StartDayBoundaryTimer(ctx context.Context) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	s.boundaryMu.Lock()
	s.boundaryOn = true
	s.boundaryMu.Unlock()

	parsed := window.Parse(settings.Window())
	s.armBoundary(ctx, window.NextDayBoundary(s.now(), parsed, s.Zone))

	go func() {
		<-ctx.Done()
		s.boundaryMu.Lock()
		defer s.boundaryMu.Unlock()
		if s.boundaryTimer != nil {
			s.boundaryTimer.Stop()
		}
		s.boundaryOn = false
	}()
	return nil
}

func (s *Service) armBoundary(ctx context.Context, at time.Time) {
	s.boundaryMu.Lock()
	defer s.boundaryMu.Unlock()

	if s.boundaryTimer != nil {
		s.boundaryTimer.Stop()
	}
	delay := at.Sub(s.now())
	if delay < 0 {
		delay = 0
	}
	s.boundaryTimer = time.AfterFunc(delay, func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.HandleTrigger(ctx, TriggerDayBoundary); err != nil {
			fmt.Fprintf(os.Stderr, "app: day-boundary replay: %v\n", err)
		}
		if settings, err := s.Settings(ctx); err == nil {
			parsed := window.Parse(settings.Window())
			s.armBoundary(ctx, window.NextDayBoundary(s.now(), parsed, s.Zone))
		}
	})
}

// restartBoundaryTimer re-arms the rollover task after a settings change, if
// one is running.
func (s *Service) restartBoundaryTimer(ctx context.Context) {
	s.boundaryMu.Lock()
	running := s.boundaryOn
	s.boundaryMu.Unlock()
	if !running {
		return
	}
	if settings, err := s.Settings(ctx); err == nil {
		parsed := window.Parse(settings.Window())
		s.armBoundary(ctx, window.NextDayBoundary(s.now(), parsed, s.Zone))
	}
}
