package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"
)

type memoryStore struct {
	items   []Item
	loadErr error
	saves   int
}

func (m *memoryStore) Load(_ context.Context) ([]Item, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memoryStore) Save(_ context.Context, items []Item) error {
	m.items = make([]Item, len(items))
	copy(m.items, items)
	m.saves++
	return nil
}

func item(id string, retries int, lastTry *time.Time) Item {
	return Item{
		ID:         id,
		Type:       TypeDayRecord,
		Payload:    json.RawMessage(`{}`),
		RetryCount: retries,
		LastTryAt:  lastTry,
	}
}

func TestID(t *testing.T) {
	if got := ID(TypeDayRecord, "u1-2024-01-05"); got != "dayRecord-u1-2024-01-05" {
		t.Errorf("ID = %q", got)
	}
	if got := ID(TypeSettings, "u1"); got != "settings-u1" {
		t.Errorf("ID = %q", got)
	}
}

func TestEnqueueMergesOnDuplicateID(t *testing.T) {
	ctx := context.Background()
	ms := &memoryStore{}
	q := NewQueue(ms)

	if err := q.Enqueue(ctx, item("a", 0, nil)); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(ctx, item("a", 2, nil)); err != nil {
		t.Fatal(err)
	}

	items, err := q.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("len = %d, want 1", len(items))
	}
	if items[0].RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", items[0].RetryCount)
	}
}

func TestEnqueueMergeKeepsExistingLastTry(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&memoryStore{})
	tried := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := q.Enqueue(ctx, item("a", 1, &tried)); err != nil {
		t.Fatal(err)
	}
	// Incoming item carries no attempt time; the recorded one survives.
	if err := q.Enqueue(ctx, item("a", 0, nil)); err != nil {
		t.Fatal(err)
	}

	items, _ := q.LoadAll(ctx)
	if items[0].LastTryAt == nil || !items[0].LastTryAt.Equal(tried) {
		t.Errorf("last try = %v, want %v", items[0].LastTryAt, tried)
	}
	if items[0].RetryCount != 1 {
		t.Errorf("retry count = %d, want 1", items[0].RetryCount)
	}
}

func TestTrimEvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&memoryStore{})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := make([]Item, 0, Capacity)
	for i := 0; i < Capacity; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		seed = append(seed, item(fmt.Sprintf("it-%03d", i), 0, &at))
	}
	// it-000 has the oldest attempt and is the eviction candidate.
	if err := q.SaveAll(ctx, seed); err != nil {
		t.Fatal(err)
	}

	newest := base.Add(time.Hour * 24)
	if err := q.Enqueue(ctx, item("newcomer", 0, &newest)); err != nil {
		t.Fatal(err)
	}

	items, _ := q.LoadAll(ctx)
	if len(items) != Capacity {
		t.Fatalf("len = %d, want %d", len(items), Capacity)
	}
	for _, it := range items {
		if it.ID == "it-000" {
			t.Error("oldest item survived the trim")
		}
	}
}

func TestTrimEvictsNeverTriedBeforeTried(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&memoryStore{})

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed := make([]Item, 0, Capacity+1)
	seed = append(seed, item("untried", 0, nil))
	for i := 0; i < Capacity; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		seed = append(seed, item(fmt.Sprintf("it-%03d", i), 0, &at))
	}
	if err := q.SaveAll(ctx, seed); err != nil {
		t.Fatal(err)
	}

	items, _ := q.LoadAll(ctx)
	if len(items) != Capacity {
		t.Fatalf("len = %d, want %d", len(items), Capacity)
	}
	for _, it := range items {
		if it.ID == "untried" {
			t.Error("never-tried item should sort oldest and be evicted")
		}
	}
}

func TestSaveAllDedupesLastWins(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&memoryStore{})

	if err := q.SaveAll(ctx, []Item{
		item("a", 0, nil),
		item("b", 0, nil),
		item("a", 3, nil),
	}); err != nil {
		t.Fatal(err)
	}

	items, _ := q.LoadAll(ctx)
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].ID != "a" || items[0].RetryCount != 3 {
		t.Errorf("items[0] = %+v, want id a with retry 3", items[0])
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	q := NewQueue(&memoryStore{})
	_ = q.SaveAll(ctx, []Item{item("a", 0, nil), item("b", 0, nil), item("c", 0, nil)})

	if err := q.Remove(ctx, "a", "c"); err != nil {
		t.Fatal(err)
	}
	items, _ := q.LoadAll(ctx)
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("items = %v, want only b", items)
	}
}

func TestCorruptStoreActsEmptyButSurfaces(t *testing.T) {
	ctx := context.Background()
	ms := &memoryStore{loadErr: fmt.Errorf("decode blob: %w", ErrCorrupt)}
	q := NewQueue(ms)

	items, err := q.LoadAll(ctx)
	if len(items) != 0 {
		t.Errorf("items = %v, want empty", items)
	}
	if err == nil {
		t.Fatal("want surfaced corruption error")
	}

	// Enqueue still works, starting from an empty queue.
	ms.loadErr = fmt.Errorf("decode blob: %w", ErrCorrupt)
	if err := q.Enqueue(ctx, item("a", 0, nil)); err != nil {
		t.Fatal(err)
	}
}
