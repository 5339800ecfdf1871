// Package tui is the interactive terminal view of the habit: the current
// phase, tonight's countdown, recent history, and sync state, with
// single-key commit and confirmation.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tableflip.dev/lumen/pkg/app"
	"tableflip.dev/lumen/pkg/habit"
	"tableflip.dev/lumen/pkg/phase"
)

type tickMsg time.Time

type statusMsg struct {
	status app.Status
	err    error
}

type syncDoneMsg struct{ err error }

type actionDoneMsg struct{ err error }

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
	openStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	closedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Faint(true).MarginTop(1)
)

// Model is the Bubble Tea model for the status screen.
type Model struct {
	svc *app.Service
	ctx context.Context

	status  app.Status
	err     error
	notice  string
	syncing bool
	spin    spinner.Model
}

func New(svc *app.Service) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{svc: svc, ctx: context.Background(), spin: sp}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		st, err := svc.Status(ctx, 7)
		return statusMsg{status: st, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "c":
			return m, m.do(func(ctx context.Context) error {
				_, err := m.svc.Commit(ctx)
				return err
			})
		case "y":
			return m, m.do(func(ctx context.Context) error {
				_, err := m.svc.Confirm(ctx)
				return err
			})
		case "n":
			return m, m.do(func(ctx context.Context) error {
				_, err := m.svc.Reject(ctx)
				return err
			})
		case "s":
			m.syncing = true
			m.notice = ""
			svc, ctx := m.svc, m.ctx
			return m, tea.Batch(m.spin.Tick, func() tea.Msg {
				_, err := svc.HandleTrigger(ctx, app.TriggerManual)
				return syncDoneMsg{err: err}
			})
		}

	case tickMsg:
		return m, tea.Batch(m.refresh(), tickCmd())

	case statusMsg:
		m.status, m.err = msg.status, msg.err
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		} else {
			m.notice = ""
		}
		return m, m.refresh()

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.syncing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) do(fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return actionDoneMsg{err: fn(ctx)}
	}
}

func (m Model) View() string {
	if m.err != nil {
		return closedStyle.Render("error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder
	st := m.status

	b.WriteString(titleStyle.Render("Light habit  "+st.Timeline.DayKey) + "\n\n")
	b.WriteString(m.phaseLine(st.Timeline) + "\n")
	b.WriteString(todayLine(st.Today) + "\n\n")

	for _, d := range st.Recent {
		mark := "·"
		if d.Record != nil {
			switch d.Record.State {
			case habit.StateConfirmed:
				mark = "✓"
			case habit.StateRejected:
				mark = "✗"
			case habit.StateCommitted:
				mark = "●"
			}
		}
		b.WriteString(faintStyle.Render(fmt.Sprintf("%s %s", d.Date, mark)) + "\n")
	}

	b.WriteString("\n" + m.syncLine(st.Sync) + "\n")
	if m.notice != "" {
		b.WriteString(lateStyle.Render(m.notice) + "\n")
	}
	b.WriteString(helpStyle.Render("c commit · y confirm · n reject · s sync · q quit") + "\n")
	return b.String()
}

func (m Model) phaseLine(tl phase.Timeline) string {
	switch tl.Phase {
	case phase.BeforeEarly:
		return faintStyle.Render("confirmation opens " + tl.EarlyStart.Format("15:04"))
	case phase.Early:
		return openStyle.Render("early confirmation open") +
			faintStyle.Render("  window "+tl.NightStart.Format("15:04")+"-"+tl.NightEnd.Format("15:04"))
	case phase.InWindow:
		left := tl.NightEnd.Sub(tl.Now).Round(time.Second)
		return openStyle.Render("window open") + faintStyle.Render(fmt.Sprintf("  %s left", left))
	case phase.Expired:
		return lateStyle.Render("window closed") +
			faintStyle.Render("  late confirmation until "+tl.Cutoff.Format("15:04"))
	case phase.AfterCutoff:
		return closedStyle.Render("day is locked")
	}
	return ""
}

func todayLine(rec *habit.DayRecord) string {
	if rec == nil {
		return faintStyle.Render("no commitment yet")
	}
	switch rec.State {
	case habit.StateConfirmed:
		return openStyle.Render("✓ confirmed")
	case habit.StateRejected:
		return closedStyle.Render("✗ rejected")
	}
	return "● committed, confirmation outstanding"
}

func (m Model) syncLine(st app.SyncStatus) string {
	if m.syncing {
		return m.spin.View() + faintStyle.Render(" syncing")
	}
	switch st.State {
	case app.SyncFailed:
		line := fmt.Sprintf("sync: %d pending, retrying", st.PendingCount)
		if st.NextRetryAt != nil {
			line += " at " + st.NextRetryAt.Format("15:04:05")
		}
		return lateStyle.Render(line)
	case app.SyncPending:
		return faintStyle.Render(fmt.Sprintf("sync: %d pending", st.PendingCount))
	case app.SyncSyncing:
		return faintStyle.Render("sync: in flight")
	}
	return faintStyle.Render("sync: up to date")
}

// Run starts the program. The day-rollover timer runs for the life of the
// view so the schedule and the displayed day stay fresh overnight.
func Run(svc *app.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := svc.StartDayBoundaryTimer(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ui: day boundary timer: %v\n", err)
	}

	p := tea.NewProgram(New(svc))
	_, err := p.Run()
	return err
}
