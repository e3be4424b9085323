// Package tui provides the Bubble Tea screens of worktimer: the interactive
// timer and the posted-record history viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/worktimer/internal/config"
	"github.com/fakeyudi/worktimer/internal/record"
	"github.com/fakeyudi/worktimer/internal/submit"
	"github.com/fakeyudi/worktimer/internal/timer"
)

// RefreshInterval is how often the screen re-reads the machine snapshot.
const RefreshInterval = 200 * time.Millisecond

// Submitter posts the record of a stopped session.
type Submitter interface {
	Submit(ctx context.Context, sess timer.Session, fields record.Fields) (submit.Outcome, error)
}

// Options configures the timer screen.
type Options struct {
	Machine       *timer.Machine
	Submitter     Submitter
	Fields        record.Fields        // initial form values
	ConfigUpdates <-chan config.Config // optional hot-reload feed
}

// ── Form fields ────────────

const (
	fieldDuration = iota
	fieldDescription
	fieldNotes
	fieldProjectName
	fieldProjectNumber
	fieldCount
)

var fieldLabels = [fieldCount]string{
	"Duration (min)", "Description", "Notes", "Project", "Project No.",
}

// noFocus means keys drive the timer instead of a text field.
const noFocus = -1

// ── Messages ────────────

type refreshMsg time.Time

type postedMsg struct {
	outcome submit.Outcome
	err     error
}

type configMsg config.Config

// ── Model ────────────

// TimerModel is the Bubble Tea model of the interactive timer.
type TimerModel struct {
	machine   *timer.Machine
	submitter Submitter
	updates   <-chan config.Config

	inputs  [fieldCount]textinput.Model
	focus   int
	bar     progress.Model
	help    help.Model
	keys    keyMap
	snap    timer.Snapshot
	toast   string
	toastOK bool
	posting bool
	width   int
}

// NewTimer builds the timer screen for opts.Machine.
func NewTimer(opts Options) TimerModel {
	m := TimerModel{
		machine:   opts.Machine,
		submitter: opts.Submitter,
		updates:   opts.ConfigUpdates,
		focus:     noFocus,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		help:      help.New(),
		keys:      newKeyMap(),
		snap:      opts.Machine.Snapshot(),
	}

	values := [fieldCount]string{
		fieldDuration:      fmt.Sprint(m.snap.TargetDurationSeconds / 60),
		fieldDescription:   opts.Fields.Description,
		fieldNotes:         opts.Fields.Notes,
		fieldProjectName:   opts.Fields.ProjectName,
		fieldProjectNumber: opts.Fields.ProjectNumber,
	}
	for i := range m.inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.SetValue(values[i])
		m.inputs[i] = ti
	}
	m.inputs[fieldDuration].CharLimit = 6
	m.inputs[fieldDuration].Placeholder = timer.DefaultMinutesInput
	m.inputs[fieldProjectNumber].CharLimit = 20
	m.syncKeys()
	return m
}

// Fields returns the current form values.
func (m TimerModel) Fields() record.Fields {
	return record.Fields{
		Description:   m.inputs[fieldDescription].Value(),
		Notes:         m.inputs[fieldNotes].Value(),
		ProjectName:   m.inputs[fieldProjectName].Value(),
		ProjectNumber: m.inputs[fieldProjectNumber].Value(),
	}
}

// ── Bubble Tea interface ───────────────

func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(refresh(), m.waitForConfig())
}

func refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m TimerModel) waitForConfig() tea.Cmd {
	if m.updates == nil {
		return nil
	}
	ch := m.updates
	return func() tea.Msg {
		cfg, ok := <-ch
		if !ok {
			return nil
		}
		return configMsg(cfg)
	}
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.snap = m.machine.Snapshot()
		m.syncKeys()
		return m, refresh()

	case configMsg:
		m.applyConfig(config.Config(msg))
		return m, m.waitForConfig()

	case postedMsg:
		m.posting = false
		m.showPostResult(msg)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.focus != noFocus {
			return m.updateFocused(msg)
		}
		return m.updateTimerKeys(msg)
	}
	return m, nil
}

func (m TimerModel) updateTimerKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "s":
		m.machine.Start()
	case "x":
		// Stop while running, reset once stopped.
		switch m.machine.Snapshot().State {
		case timer.Running:
			m.machine.Stop()
		case timer.Stopped:
			m.machine.Reset()
		}
	case "r":
		m.machine.Reset()
		m.toast = ""
	case "p":
		cmd = m.post()
	case "tab":
		cmd = m.setFocus(0)
	case "shift+tab":
		cmd = m.setFocus(fieldCount - 1)
	}
	m.snap = m.machine.Snapshot()
	m.syncKeys()
	return m, cmd
}

func (m TimerModel) updateFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.setFocus(noFocus)
		return m, nil
	case "tab":
		next := m.focus + 1
		if next >= fieldCount {
			next = noFocus
		}
		cmd := m.setFocus(next)
		return m, cmd
	case "shift+tab":
		cmd := m.setFocus(m.focus - 1)
		return m, cmd
	case "enter":
		if m.focus == fieldDuration {
			m.applyDuration()
			return m, nil
		}
		cmd := m.setFocus(m.focus + 1)
		return m, cmd
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *TimerModel) setFocus(i int) tea.Cmd {
	if m.focus != noFocus {
		m.inputs[m.focus].Blur()
	}
	if i < 0 || i >= fieldCount {
		m.focus = noFocus
		return nil
	}
	m.focus = i
	return m.inputs[i].Focus()
}

// applyDuration validates the duration field and applies it while Idle.
// Outside Idle the field is left as typed and nothing changes.
func (m *TimerModel) applyDuration() {
	minutes, err := timer.ParseMinutes(m.inputs[fieldDuration].Value())
	if err != nil {
		var inputErr *timer.InputError
		if errors.As(err, &inputErr) {
			m.inputs[fieldDuration].SetValue(inputErr.ResetInput)
			m.setToast(inputErr.Message, false)
		}
		return
	}
	if err := m.machine.SetTargetDuration(minutes); err != nil {
		return
	}
	m.snap = m.machine.Snapshot()
	m.setToast(fmt.Sprintf("target set to %d min", minutes), true)
}

func (m *TimerModel) applyConfig(cfg config.Config) {
	if cfg.TargetMinutes <= 0 || m.machine.Snapshot().State != timer.Idle {
		return
	}
	if err := m.machine.SetTargetDuration(cfg.TargetMinutes); err != nil {
		return
	}
	m.inputs[fieldDuration].SetValue(fmt.Sprint(cfg.TargetMinutes))
	m.snap = m.machine.Snapshot()
	m.setToast("configuration reloaded", true)
}

// post starts an asynchronous submit. It refuses until the session is
// stopped with both timestamps.
func (m *TimerModel) post() tea.Cmd {
	sess := m.machine.Snapshot().Session
	switch {
	case m.posting:
		return nil
	case !sess.Complete():
		m.setToast("stop the timer before posting", false)
		return nil
	case m.submitter == nil:
		m.setToast("posting is not configured", false)
		return nil
	}
	m.posting = true
	m.setToast("posting…", true)
	sub, fields := m.submitter, m.Fields()
	return func() tea.Msg {
		out, err := sub.Submit(context.Background(), sess, fields)
		return postedMsg{outcome: out, err: err}
	}
}

func (m *TimerModel) showPostResult(msg postedMsg) {
	switch {
	case msg.err != nil:
		m.setToast("API Error: "+msg.err.Error(), false)
	case msg.outcome.DryRun:
		m.setToast(fmt.Sprintf("dry run: %s of work not posted", msg.outcome.Payload.ElapsedFormatted), true)
	default:
		text := fmt.Sprintf("API Request Successful: ID:%s record added", msg.outcome.RemoteID)
		if len(msg.outcome.Warnings) > 0 {
			text += " (" + strings.Join(msg.outcome.Warnings, "; ") + ")"
		}
		m.setToast(text, true)
	}
}

func (m *TimerModel) setToast(text string, ok bool) {
	m.toast, m.toastOK = text, ok
}

// syncKeys enables only the actions legal in the current state.
func (m *TimerModel) syncKeys() {
	state := m.snap.State
	m.keys.Start.SetEnabled(state != timer.Running)
	m.keys.StopOrReset.SetEnabled(state != timer.Idle)
	if state == timer.Stopped {
		m.keys.StopOrReset.SetHelp("x", "reset")
	} else {
		m.keys.StopOrReset.SetHelp("x", "stop")
	}
	m.keys.Post.SetEnabled(m.snap.Complete() && !m.posting)
	m.keys.Apply.SetEnabled(state == timer.Idle)
}

func (m TimerModel) View() string {
	var sb strings.Builder
	width := m.width
	if width <= 0 {
		width = 60
	}
	sb.WriteString(titleStyle.Width(width).Render("  worktimer") + "\n\n")

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-14s", label)) + "  " + value + "\n")
	}

	state := string(m.snap.State)
	row("State:", stateStyles[state].Render(strings.ToUpper(state)))
	row("Elapsed:", clockStyle.Render(record.FormatClock(m.snap.ElapsedSeconds)))
	row("Progress:", m.bar.ViewAs(m.snap.Percentage/100))
	row("Start:", stamp(m.snap.StartedAt, "not started yet"))
	if m.snap.RestartedAt != nil {
		row("Restart:", stamp(m.snap.RestartedAt, ""))
	}
	row("Stop:", stamp(m.snap.StoppedAt, "not stopped yet"))

	sb.WriteString("\n" + sectionHeader.Render("  Record") + "\n\n")
	for i := range m.inputs {
		label := fieldLabels[i] + ":"
		if i == m.focus {
			label = "▸ " + label
		}
		row(label, m.inputs[i].View())
	}

	sb.WriteString("\n")
	if m.toast != "" {
		style := toastErrStyle
		if m.toastOK {
			style = toastOKStyle
		}
		sb.WriteString("  " + style.Render(m.toast) + "\n")
	} else {
		sb.WriteString("\n")
	}

	sb.WriteString(statusBarStyle.Width(width).Render(m.help.View(m.keys)))
	return sb.String()
}

func stamp(t *time.Time, empty string) string {
	if t == nil {
		return dimStyle.Render(empty)
	}
	return timeStyle.Render(t.Format("15:04:05"))
}

// RunTimer starts the timer screen and blocks until the user quits.
func RunTimer(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewTimer(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
