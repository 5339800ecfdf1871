package app

import (
	"context"
	"errors"
	"time"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/pending"
	"tableflip.dev/lumen/pkg/phase"
	"tableflip.dev/lumen/pkg/window"
)

// SyncState is the user-visible settings-sync condition.
type SyncState string

const (
	// SyncSynced means nothing is waiting for upload.
	SyncSynced SyncState = "synced"
	// SyncPending means a write is queued but has not failed yet.
	SyncPending SyncState = "pending"
	// SyncSyncing means a replay is in flight right now.
	SyncSyncing SyncState = "syncing"
	// SyncFailed means at least one upload attempt failed and is backing off.
	SyncFailed SyncState = "failed"
)

// SyncStatus summarizes the pending queue for display.
type SyncStatus struct {
	State        SyncState
	PendingCount int
	NextRetryAt  *time.Time
	// QueueCorrupt reports that the stored queue failed to decode and was
	// treated as empty; previously pending writes are at risk.
	QueueCorrupt bool
}

// DayStatus is one business day of history.
type DayStatus struct {
	Date   string
	Record *habit.DayRecord
}

// Status is everything the status views render.
type Status struct {
	Settings habit.Settings
	Timeline phase.Timeline
	Today    *habit.DayRecord
	Recent   []DayStatus
	Sync     SyncStatus
}

// Status assembles the current timeline, today's record, recent history, and
// sync state.
func (s *Service) Status(ctx context.Context, historyDays int) (Status, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Status{}, err
	}
	now := s.now()
	tl := phase.Evaluate(settings, now, s.Zone)

	today, err := s.Persistence.Record(ctx, tl.DayKey)
	if err != nil {
		return Status{}, err
	}

	if historyDays <= 0 {
		historyDays = 7
	}
	parsed := window.Parse(settings.Window())
	recent := make([]DayStatus, 0, historyDays)
	for _, key := range window.RecentDayKeys(historyDays, now, parsed, s.Zone) {
		rec, err := s.Persistence.Record(ctx, key)
		if err != nil {
			return Status{}, err
		}
		recent = append(recent, DayStatus{Date: key, Record: rec})
	}

	sync, err := s.SyncStatus(ctx)
	if err != nil {
		return Status{}, err
	}

	return Status{
		Settings: settings,
		Timeline: tl,
		Today:    today,
		Recent:   recent,
		Sync:     sync,
	}, nil
}

// SyncStatus derives the user-visible sync condition from the queue
// snapshot. Settings items drive the state; day-record items only keep it
// at pending.
func (s *Service) SyncStatus(ctx context.Context) (SyncStatus, error) {
	snap, err := s.Replayer.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, pending.ErrCorrupt) {
			return SyncStatus{State: SyncSynced, QueueCorrupt: true}, nil
		}
		return SyncStatus{}, err
	}

	status := SyncStatus{
		State:        SyncSynced,
		PendingCount: len(snap.Pending),
		NextRetryAt:  snap.NextRetryAt,
	}
	if len(snap.Pending) > 0 {
		status.State = SyncPending
		for _, it := range snap.Pending {
			if it.RetryCount > 0 {
				status.State = SyncFailed
				break
			}
		}
	}
	if s.syncing.Load() {
		status.State = SyncSyncing
	}
	return status, nil
}
