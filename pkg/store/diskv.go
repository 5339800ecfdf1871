// Package store persists habit state on disk through diskv: day records,
// settings, the pending sync queue, and the reminder scheduling ledger.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/pending"
	"tableflip.dev/lumen/pkg/reminder"
)

// Persistence is the durable-store contract the application core consumes.
type Persistence interface {
	Record(ctx context.Context, date string) (*habit.DayRecord, error)
	Records(ctx context.Context) []habit.DayRecord
	StoreRecord(rec habit.DayRecord) error

	Settings(ctx context.Context) (*habit.Settings, error)
	StoreSettings(s habit.Settings) error

	PendingQueue() pending.Store
	ReminderLedger() reminder.Ledger
	Delivery() reminder.Delivery
	ScheduledRequests(ctx context.Context) []reminder.Request

	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	basePath := cfg.BasePath()
	return &persistence{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
		// Values land via temp file + rename so a crash mid-write can never
		// leave a truncated blob behind. Kept beside the base path so the
		// rename stays on one filesystem and temp files stay out of Keys.
		TempDir: basePath + ".tmp",
	}), basePath: basePath}, nil
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
}

const (
	recordPrefix = "records-"
	settingsKey  = "settings-current"
	queueKey     = "sync-queue"
	ledgerKey    = "reminders-ledger"
	schedPrefix  = "sched-"
)

func recordKey(date string) string {
	return recordPrefix + date
}

func (p *persistence) Record(_ context.Context, date string) (*habit.DayRecord, error) {
	val, err := p.d.Read(recordKey(date))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read record %s: %w", date, err)
	}
	var rec habit.DayRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("store: decode record %s: %w", date, err)
	}
	return &rec, nil
}

func (p *persistence) Records(ctx context.Context) []habit.DayRecord {
	all := make([]habit.DayRecord, 0)
	for key := range p.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, recordPrefix) {
			continue
		}
		val, err := p.d.Read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		var rec habit.DayRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Date > all[j].Date // newest first
	})
	return all
}

func (p *persistence) StoreRecord(rec habit.DayRecord) error {
	if rec.Date == "" {
		return errors.New("store: record date required")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return p.d.Write(recordKey(rec.Date), data)
}

func (p *persistence) Settings(_ context.Context) (*habit.Settings, error) {
	val, err := p.d.Read(settingsKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read settings: %w", err)
	}
	var s habit.Settings
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("store: decode settings: %w", err)
	}
	return &s, nil
}

func (p *persistence) StoreSettings(s habit.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return p.d.Write(settingsKey, data)
}

// PendingQueue exposes the sync queue blob. The whole list is one diskv
// value, so a single Write is the unit of atomicity.
func (p *persistence) PendingQueue() pending.Store {
	return queueStore{p: p}
}

type queueStore struct {
	p *persistence
}

func (q queueStore) Load(_ context.Context) ([]pending.Item, error) {
	val, err := q.p.d.Read(queueKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read pending queue: %w", err)
	}
	var items []pending.Item
	if err := json.Unmarshal(val, &items); err != nil {
		// Decode failure means previously pending writes are at risk; the
		// caller decides how loudly to say so.
		return nil, fmt.Errorf("store: decode pending queue: %w", pending.ErrCorrupt)
	}
	return items, nil
}

func (q queueStore) Save(_ context.Context, items []pending.Item) error {
	if items == nil {
		items = []pending.Item{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return q.p.d.Write(queueKey, data)
}

// ReminderLedger records the identifiers submitted by the last scheduling
// run.
func (p *persistence) ReminderLedger() reminder.Ledger {
	return ledgerStore{p: p}
}

type ledgerStore struct {
	p *persistence
}

func (l ledgerStore) LoadIDs(_ context.Context) ([]string, error) {
	val, err := l.p.d.Read(ledgerKey)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read reminder ledger: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(val, &ids); err != nil {
		return nil, fmt.Errorf("store: decode reminder ledger: %w", err)
	}
	return ids, nil
}

func (l ledgerStore) SaveIDs(_ context.Context, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return l.p.d.Write(ledgerKey, data)
}

// Delivery returns the local reminder ledger delivery: scheduled requests
// are persisted so the CLI can display them. Presentation is out of scope;
// always authorized.
func (p *persistence) Delivery() reminder.Delivery {
	return deliveryStore{p: p}
}

type deliveryStore struct {
	p *persistence
}

func (d deliveryStore) Authorized(_ context.Context) bool { return true }

func (d deliveryStore) Add(_ context.Context, req reminder.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return d.p.d.Write(schedPrefix+req.Identifier, data)
}

func (d deliveryStore) CancelPending(_ context.Context, ids []string) {
	for _, id := range ids {
		if err := d.p.d.Erase(schedPrefix + id); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "store: cancel %s: %v\n", id, err)
		}
	}
}

func (d deliveryStore) Pending(ctx context.Context) []string {
	ids := make([]string, 0)
	for _, req := range d.p.ScheduledRequests(ctx) {
		ids = append(ids, req.Identifier)
	}
	return ids
}

// ScheduledRequests lists the persisted reminder requests, soonest first.
func (p *persistence) ScheduledRequests(ctx context.Context) []reminder.Request {
	all := make([]reminder.Request, 0)
	for key := range p.d.Keys(ctx.Done()) {
		if !strings.HasPrefix(key, schedPrefix) {
			continue
		}
		val, err := p.d.Read(key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		var req reminder.Request
		if err := json.Unmarshal(val, &req); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", key, err)
			continue
		}
		all = append(all, req)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].FireAt.Before(all[j].FireAt)
	})
	return all
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}
