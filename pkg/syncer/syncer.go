// Package syncer replays the pending-operation queue against the remote
// store with exponential backoff. Replays are trigger-driven; nothing polls.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/pending"
)

// Reason describes what triggered a replay.
type Reason string

const (
	// ReasonForeground fires when the app becomes active.
	ReasonForeground Reason = "foreground"
	// ReasonConnectivity fires when network connectivity returns.
	ReasonConnectivity Reason = "connectivity"
	// ReasonManual is a user-initiated retry and implies force.
	ReasonManual Reason = "manual"
	// ReasonDayBoundary fires from the day-rollover timer.
	ReasonDayBoundary Reason = "day-boundary"
)

const (
	backoffBaseSeconds = 5
	backoffCapSeconds  = 600
)

// BackoffSeconds is the retry delay after the given number of failed
// attempts: 5s, 10s, 20s, ... capped at 600s.
func BackoffSeconds(retryCount int) int {
	if retryCount < 0 {
		retryCount = 0
	}
	delay := backoffBaseSeconds
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= backoffCapSeconds {
			return backoffCapSeconds
		}
	}
	return delay
}

// NextRetryAt is the instant the item becomes due again. An item that was
// never tried is due immediately.
func NextRetryAt(item pending.Item, now time.Time) time.Time {
	if item.LastTryAt == nil {
		return now
	}
	return item.LastTryAt.Add(time.Duration(BackoffSeconds(item.RetryCount)) * time.Second)
}

// Remote is the upload API. UploadRecords is an idempotent upsert; the
// remote resolves conflicts last-write-wins on its own UpdatedAt comparison.
type Remote interface {
	UploadRecords(ctx context.Context, records []habit.DayRecord) ([]habit.DayRecord, error)
	UploadSettings(ctx context.Context, s habit.Settings) error
}

// Options selects what a replay attempts.
type Options struct {
	Reason Reason
	// Force bypasses the due-check for every non-excluded item. ReasonManual
	// implies it.
	Force bool
	// Types restricts the replay to the listed kinds; empty means all.
	Types []pending.Type
}

// Snapshot is the reconciled queue state after (or without) a replay.
type Snapshot struct {
	Pending []pending.Item
	// NextRetryAt is the earliest instant a pending item becomes due, when
	// any remain. A pending settings retry takes precedence in the reported
	// value since settings convergence drives UI feedback.
	NextRetryAt *time.Time
}

// Replayer orchestrates replay attempts over a single queue. The internal
// mutex serializes overlapping triggers (foreground and connectivity firing
// together) so no read-modify-write cycle is lost.
type Replayer struct {
	mu     sync.Mutex
	queue  *pending.Queue
	remote Remote
	now    func() time.Time
}

// New builds a Replayer. A nil remote leaves the queue untouched and every
// replay degrades to a read-only snapshot.
func New(queue *pending.Queue, remote Remote) *Replayer {
	return &Replayer{queue: queue, remote: remote, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (r *Replayer) SetClock(now func() time.Time) {
	r.now = now
}

// Replay loads the queue, attempts every due (or forced) item against the
// remote grouped by payload kind, and persists the reconciled list. Remote
// failures are never surfaced as errors; they show up as retry state in the
// returned snapshot.
func (r *Replayer) Replay(ctx context.Context, opts Options) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.queue.LoadAll(ctx)
	if err != nil {
		if !errors.Is(err, pending.ErrCorrupt) {
			return Snapshot{}, err
		}
		fmt.Fprintf(os.Stderr, "syncer: %v; continuing with empty queue\n", err)
		items = nil
	}

	if r.remote == nil {
		return reconcile(items, r.now(), opts.Types), nil
	}

	now := r.now()
	force := opts.Force || opts.Reason == ReasonManual
	included := typeSet(opts.Types)

	var out []pending.Item
	var dueRecords, dueSettings []pending.Item
	for _, it := range items {
		switch {
		case included != nil && !included[it.Type]:
			out = append(out, it)
		case !force && now.Before(NextRetryAt(it, now)):
			out = append(out, it)
		case it.Type == pending.TypeSettings:
			dueSettings = append(dueSettings, it)
		default:
			dueRecords = append(dueRecords, it)
		}
	}

	out = append(out, r.attemptRecords(ctx, dueRecords, now)...)
	out = append(out, r.attemptSettings(ctx, dueSettings, now)...)

	if err := r.queue.SaveAll(ctx, out); err != nil {
		return Snapshot{}, err
	}
	return reconcile(out, now, opts.Types), nil
}

// Snapshot reports queue state without mutating anything or touching the
// remote. Used for UI status. It takes the same mutex as Replay so a status
// read never interleaves with a replay's load-attempt-save cycle.
func (r *Replayer) Snapshot(ctx context.Context, types ...pending.Type) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items, err := r.queue.LoadAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return reconcile(items, r.now(), types), nil
}

// attemptRecords uploads all due day records in one batched call. On success
// the items are dropped; on failure each comes back with its retry state
// advanced.
func (r *Replayer) attemptRecords(ctx context.Context, due []pending.Item, now time.Time) []pending.Item {
	if len(due) == 0 {
		return nil
	}
	records := make([]habit.DayRecord, 0, len(due))
	valid := make([]pending.Item, 0, len(due))
	for _, it := range due {
		var rec habit.DayRecord
		if err := json.Unmarshal(it.Payload, &rec); err != nil {
			// A payload that cannot decode can never upload; drop it
			// rather than retrying forever.
			fmt.Fprintf(os.Stderr, "syncer: drop undecodable item %s: %v\n", it.ID, err)
			continue
		}
		records = append(records, rec)
		valid = append(valid, it)
	}
	if len(valid) == 0 {
		return nil
	}
	if _, err := r.remote.UploadRecords(ctx, records); err != nil {
		return failed(valid, now)
	}
	return nil
}

// attemptSettings uploads the newest due settings payload; older duplicates
// ride along on the outcome.
func (r *Replayer) attemptSettings(ctx context.Context, due []pending.Item, now time.Time) []pending.Item {
	if len(due) == 0 {
		return nil
	}
	var newest *habit.Settings
	valid := make([]pending.Item, 0, len(due))
	for _, it := range due {
		var s habit.Settings
		if err := json.Unmarshal(it.Payload, &s); err != nil {
			fmt.Fprintf(os.Stderr, "syncer: drop undecodable item %s: %v\n", it.ID, err)
			continue
		}
		if newest == nil || s.UpdatedAt.After(newest.UpdatedAt) {
			newest = &s
		}
		valid = append(valid, it)
	}
	if newest == nil {
		return nil
	}
	if err := r.remote.UploadSettings(ctx, *newest); err != nil {
		return failed(valid, now)
	}
	return nil
}

func failed(items []pending.Item, now time.Time) []pending.Item {
	out := make([]pending.Item, 0, len(items))
	for _, it := range items {
		it.RetryCount++
		at := now
		it.LastTryAt = &at
		out = append(out, it)
	}
	return out
}

// reconcile builds the snapshot for a pending list: the earliest next-retry
// instant across items the filter admits, with settings retries reported in
// preference to record retries.
func reconcile(items []pending.Item, now time.Time, types []pending.Type) Snapshot {
	included := typeSet(types)
	var earliest, earliestSettings *time.Time
	for _, it := range items {
		if included != nil && !included[it.Type] {
			continue
		}
		at := NextRetryAt(it, now)
		if earliest == nil || at.Before(*earliest) {
			t := at
			earliest = &t
		}
		if it.Type == pending.TypeSettings && (earliestSettings == nil || at.Before(*earliestSettings)) {
			t := at
			earliestSettings = &t
		}
	}
	next := earliest
	if earliestSettings != nil {
		next = earliestSettings
	}
	return Snapshot{Pending: items, NextRetryAt: next}
}

func typeSet(types []pending.Type) map[pending.Type]bool {
	if len(types) == 0 {
		return nil
	}
	set := make(map[pending.Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}
