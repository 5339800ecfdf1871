package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/phase"
	"tableflip.dev/lumen/pkg/reminder"
)

type PrettyPrint struct {
	ShowHistory bool
}

func (pp *PrettyPrint) NewLine() {
	fmt.Println("")
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Println(title)
}

// Status renders the full status view: today's phase, the record, recent
// history, and the sync line.
func (pp *PrettyPrint) Status(st app.Status) {
	pp.Title(fmt.Sprintf("Light habit  %s", st.Timeline.DayKey))
	pp.Phase(st.Timeline)
	pp.Today(st.Today)
	if pp.ShowHistory {
		pp.NewLine()
		pp.History(st.Recent)
	}
	pp.NewLine()
	pp.Sync(st.Sync)
}

func (pp *PrettyPrint) Phase(tl phase.Timeline) {
	p := color.New()
	f := color.New(color.Faint)

	switch tl.Phase {
	case phase.BeforeEarly:
		_, _ = p.Println("Confirmation opens later today.")
		_, _ = f.Printf("earliest %s, window %s\n",
			clock(tl.EarlyStart), span(tl.NightStart, tl.NightEnd))
	case phase.Early:
		_, _ = p.Println("Early confirmation is open.")
		_, _ = f.Printf("window proper %s\n", span(tl.NightStart, tl.NightEnd))
	case phase.InWindow:
		g := color.New(color.FgHiGreen)
		_, _ = g.Println("Confirmation window is open now.")
		_, _ = f.Printf("closes %s\n", clock(tl.NightEnd))
	case phase.Expired:
		y := color.New(color.FgHiYellow)
		_, _ = y.Println("Tonight's window has closed.")
		_, _ = f.Printf("late confirmation until %s\n", clock(tl.Cutoff))
	case phase.AfterCutoff:
		r := color.New(color.FgHiRed)
		_, _ = r.Println("This day can no longer be changed.")
	}
}

func (pp *PrettyPrint) Today(rec *habit.DayRecord) {
	p := color.New()
	f := color.New(color.Faint, color.Italic)

	if rec == nil {
		_, _ = f.Println("no commitment yet today")
		return
	}
	_, _ = p.Printf("%s %s\n", stateGlyph(rec.State), stateLabel(rec.State))
}

func (pp *PrettyPrint) History(days []app.DayStatus) {
	pp.Title("Recent")

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, d := range days {
		state := "·"
		label := ""
		if d.Record != nil {
			state = stateGlyph(d.Record.State)
			label = stateLabel(d.Record.State)
		}
		tbl.AddRow(d.Date, state, label)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func (pp *PrettyPrint) Sync(st app.SyncStatus) {
	f := color.New(color.Faint)

	if st.QueueCorrupt {
		r := color.New(color.FgHiRed)
		_, _ = r.Println("sync queue was corrupt; queued writes were discarded")
	}
	switch st.State {
	case app.SyncSynced:
		_, _ = f.Println("sync: up to date")
	case app.SyncSyncing:
		_, _ = f.Println("sync: in flight")
	case app.SyncPending:
		_, _ = f.Printf("sync: %d pending\n", st.PendingCount)
	case app.SyncFailed:
		y := color.New(color.FgHiYellow)
		_, _ = y.Printf("sync: %d pending, retrying", st.PendingCount)
		if st.NextRetryAt != nil {
			_, _ = y.Printf(" at %s", clock(*st.NextRetryAt))
		}
		_, _ = y.Println("")
	}
}

func (pp *PrettyPrint) Settings(s habit.Settings) {
	pp.Title("Settings")

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("day reminder", s.DayReminder)
	tbl.AddRow("night window", span2(s.NightStart, s.NightEnd))
	tbl.AddRow("interval", fmt.Sprintf("%dm", s.Interval()))
	tbl.AddRow("reminders", enabled(s.Enabled))
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func (pp *PrettyPrint) Reminders(reqs []reminder.Request) {
	pp.Title("Scheduled reminders")

	if len(reqs) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Println(" none")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, r := range reqs {
		tbl.AddRow(r.FireAt.Format("Mon 15:04"), r.Title, r.Body)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func stateGlyph(s habit.RecordState) string {
	switch s {
	case habit.StateConfirmed:
		return "✓"
	case habit.StateRejected:
		return "✗"
	case habit.StateCommitted:
		return "●"
	}
	return "·"
}

func stateLabel(s habit.RecordState) string {
	switch s {
	case habit.StateConfirmed:
		return "confirmed"
	case habit.StateRejected:
		return "rejected"
	case habit.StateCommitted:
		return "committed, confirmation outstanding"
	}
	return ""
}

func enabled(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

func clock(t time.Time) string {
	return t.Format("15:04")
}

func span(start, end time.Time) string {
	return fmt.Sprintf("%s-%s", clock(start), clock(end))
}

func span2(start, end string) string {
	return fmt.Sprintf("%s-%s", strings.TrimSpace(start), strings.TrimSpace(end))
}
