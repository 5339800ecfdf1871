// Package pending implements the durable queue of operations that were
// applied locally but not yet confirmed by the remote store.
package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Type is the kind of operation waiting for upload.
type Type string

const (
	// TypeDayRecord is an unsynced day record write.
	TypeDayRecord Type = "dayRecord"
	// TypeSettings is an unsynced settings write.
	TypeSettings Type = "settings"
)

// Capacity bounds the queue; beyond it the entries with the oldest last
// attempt are evicted first.
const Capacity = 200

// ID derives the deterministic item id from a type and the payload's natural
// key, so re-enqueueing the same logical write merges instead of duplicating.
func ID(t Type, naturalKey string) string {
	return fmt.Sprintf("%s-%s", t, naturalKey)
}

// Item is one not-yet-synced operation.
type Item struct {
	ID         string          `json:"id"`
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	RetryCount int             `json:"retry_count"`
	LastTryAt  *time.Time      `json:"last_try_at,omitempty"`
}

// ErrCorrupt marks a stored queue that failed to decode. The queue treats it
// as empty so sync keeps working, but callers can detect that previously
// pending data is at risk.
var ErrCorrupt = errors.New("pending: stored queue is corrupt")

// Store persists the queue. The whole list is the unit of persistence; a
// single Save must be atomic but no cross-key guarantees are required.
type Store interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
}

// Queue is a capacity-bounded, id-keyed operation queue. All mutations are
// serialized through a single mutex so concurrent triggers cannot interleave
// read-modify-write cycles.
type Queue struct {
	mu    sync.Mutex
	store Store
}

// NewQueue wraps a Store.
func NewQueue(store Store) *Queue {
	return &Queue{store: store}
}

// Enqueue appends the item, merging with an existing entry of the same id:
// the higher retry count and the newer known attempt time survive.
func (q *Queue) Enqueue(ctx context.Context, item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}

	merged := false
	for i := range items {
		if items[i].ID != item.ID {
			continue
		}
		if item.RetryCount > items[i].RetryCount {
			items[i].RetryCount = item.RetryCount
		}
		if item.LastTryAt != nil {
			items[i].LastTryAt = item.LastTryAt
		}
		items[i].Payload = item.Payload
		merged = true
		break
	}
	if !merged {
		items = append(items, item)
	}
	return q.store.Save(ctx, trim(items))
}

// Remove drops the items with the given ids.
func (q *Queue) Remove(ctx context.Context, ids ...string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items, err := q.store.Load(ctx)
	if err != nil && !errors.Is(err, ErrCorrupt) {
		return err
	}

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := items[:0]
	for _, it := range items {
		if !drop[it.ID] {
			kept = append(kept, it)
		}
	}
	return q.store.Save(ctx, kept)
}

// SaveAll overwrites the queue with the given items, de-duplicating by id
// (last value wins) and applying the capacity trim.
func (q *Queue) SaveAll(ctx context.Context, items []Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	index := make(map[string]int, len(items))
	deduped := make([]Item, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.ID]; ok {
			deduped[i] = it
			continue
		}
		index[it.ID] = len(deduped)
		deduped = append(deduped, it)
	}
	return q.store.Save(ctx, trim(deduped))
}

// LoadAll returns the current queue contents. A corrupt store yields an
// empty list together with an error wrapping ErrCorrupt; callers decide
// whether to surface the data-at-risk condition.
func (q *Queue) LoadAll(ctx context.Context) ([]Item, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.store.Load(ctx)
}

// trim enforces Capacity, evicting the oldest-by-LastTryAt entries first.
// Items that were never tried sort as oldest. Relative order of survivors is
// preserved.
func trim(items []Item) []Item {
	if len(items) <= Capacity {
		return items
	}
	byAge := make([]Item, len(items))
	copy(byAge, items)
	sort.SliceStable(byAge, func(i, j int) bool {
		return lastTry(byAge[i]).Before(lastTry(byAge[j]))
	})
	evict := make(map[string]bool, len(items)-Capacity)
	for _, it := range byAge[:len(items)-Capacity] {
		evict[it.ID] = true
	}
	kept := make([]Item, 0, Capacity)
	for _, it := range items {
		if !evict[it.ID] {
			kept = append(kept, it)
		}
	}
	return kept
}

func lastTry(it Item) time.Time {
	if it.LastTryAt == nil {
		return time.Time{} // distant past
	}
	return *it.LastTryAt
}
