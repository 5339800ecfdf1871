// Package habit defines the domain types for the daily light habit: the
// user's settings and the per-day record of commitment and confirmation.
package habit

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"tableflip.dev/lumen/pkg/window"
)

// Settings are the user's reminder and night-window preferences. They are
// consumed by the scheduling core, persisted locally, and uploaded to the
// remote store on change.
type Settings struct {
	UserID          string    `json:"user_id"`
	DayReminder     string    `json:"day_reminder"` // "HH:MM"
	NightStart      string    `json:"night_start"`  // "HH:MM"
	NightEnd        string    `json:"night_end"`    // "HH:MM"
	IntervalMinutes int       `json:"interval_minutes"`
	Enabled         bool      `json:"enabled"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultSettings returns settings for a fresh install.
func DefaultSettings(userID string) Settings {
	return Settings{
		UserID:          userID,
		DayReminder:     "09:00",
		NightStart:      window.DefaultStart,
		NightEnd:        window.DefaultEnd,
		IntervalMinutes: 30,
		Enabled:         true,
	}
}

// Window returns the configured night window.
func (s Settings) Window() window.Window {
	return window.Window{Start: s.NightStart, End: s.NightEnd}
}

// Interval returns the night-reminder interval in minutes, substituting the
// default when the configured value is not positive.
func (s Settings) Interval() int {
	if s.IntervalMinutes <= 0 {
		return 30
	}
	return s.IntervalMinutes
}

// NaturalKey identifies the settings payload for sync purposes.
func (s Settings) NaturalKey() string {
	return s.UserID
}

// NewUserID mints a local user identity for a fresh install.
func NewUserID() string {
	return uuid.NewString()
}

// RecordState is the lifecycle position of a day record.
type RecordState string

const (
	// StateCommitted means the daytime commitment was made but the night
	// confirmation is still outstanding.
	StateCommitted RecordState = "committed"
	// StateConfirmed means the nightly confirmation succeeded.
	StateConfirmed RecordState = "confirmed"
	// StateRejected means the user explicitly declined the confirmation.
	StateRejected RecordState = "rejected"
)

// DayRecord is one business day of habit state. Date is the canonical day
// key ("YYYY-MM-DD"). UpdatedAt drives last-write-wins on the remote.
type DayRecord struct {
	UserID      string      `json:"user_id"`
	Date        string      `json:"date"`
	State       RecordState `json:"state"`
	CommittedAt *time.Time  `json:"committed_at,omitempty"`
	ConfirmedAt *time.Time  `json:"confirmed_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NaturalKey identifies the record for sync purposes.
func (r DayRecord) NaturalKey() string {
	return fmt.Sprintf("%s-%s", r.UserID, r.Date)
}

// Done reports whether the day reached a terminal state.
func (r DayRecord) Done() bool {
	return r.State == StateConfirmed || r.State == StateRejected
}
