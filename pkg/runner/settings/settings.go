package settings

import (
	"context"
	"errors"
	"fmt"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/printers"
	"tableflip.dev/lumen/pkg/window"
)

// Change is the set of settings edits to apply. Nil fields keep the stored
// value.
type Change struct {
	DayReminder     *string
	NightStart      *string
	NightEnd        *string
	IntervalMinutes *int
	Enabled         *bool
}

func (c Change) empty() bool {
	return c.DayReminder == nil && c.NightStart == nil && c.NightEnd == nil &&
		c.IntervalMinutes == nil && c.Enabled == nil
}

type Settings struct {
	Service *app.Service
	Change  Change
}

func (s *Settings) Do(ctx context.Context) error {
	if s.Service == nil {
		return errors.New("can not edit settings, no service")
	}

	current, err := s.Service.Settings(ctx)
	if err != nil {
		return err
	}

	pp := printers.PrettyPrint{}
	if s.Change.empty() {
		pp.NewLine()
		pp.Settings(current)
		return nil
	}

	if s.Change.DayReminder != nil {
		if _, ok := window.MinutesOf(*s.Change.DayReminder); !ok {
			return fmt.Errorf("invalid day reminder time %q", *s.Change.DayReminder)
		}
		current.DayReminder = *s.Change.DayReminder
	}
	if s.Change.NightStart != nil {
		if _, ok := window.MinutesOf(*s.Change.NightStart); !ok {
			return fmt.Errorf("invalid night start time %q", *s.Change.NightStart)
		}
		current.NightStart = *s.Change.NightStart
	}
	if s.Change.NightEnd != nil {
		if _, ok := window.MinutesOf(*s.Change.NightEnd); !ok {
			return fmt.Errorf("invalid night end time %q", *s.Change.NightEnd)
		}
		current.NightEnd = *s.Change.NightEnd
	}
	if s.Change.IntervalMinutes != nil {
		if *s.Change.IntervalMinutes <= 0 {
			return fmt.Errorf("interval must be positive, got %d", *s.Change.IntervalMinutes)
		}
		current.IntervalMinutes = *s.Change.IntervalMinutes
	}
	if s.Change.Enabled != nil {
		current.Enabled = *s.Change.Enabled
	}

	updated, err := s.Service.UpdateSettings(ctx, current)
	if err != nil {
		return err
	}

	pp.NewLine()
	pp.Settings(updated)
	return nil
}
