package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/worktimer/internal/ledger"
	"github.com/fakeyudi/worktimer/internal/record"
)

// HistoryModel lists posted records; enter expands one into its full payload.
type HistoryModel struct {
	entries  []ledger.Entry
	source   string
	viewport viewport.Model
	cursor   int
	expanded map[int]bool
	width    int
	height   int
	ready    bool
}

// NewHistory creates a history viewer. source names the ledger in the title.
func NewHistory(entries []ledger.Entry, source string) HistoryModel {
	return HistoryModel{
		entries:  entries,
		source:   source,
		expanded: make(map[int]bool),
	}
}

func (m HistoryModel) Init() tea.Cmd { return nil }

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.rebuild()
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.entries)-1 {
				m.cursor++
				m.rebuild()
			}
			return m, nil
		case "enter", " ":
			if len(m.entries) > 0 {
				if m.expanded[m.cursor] {
					delete(m.expanded, m.cursor)
				} else {
					m.expanded[m.cursor] = true
				}
				m.rebuild()
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(1) + statusBar(1) = 2 fixed rows
		vpHeight := m.height - 2
		if vpHeight < 1 {
			vpHeight = 1
		}
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
		m.rebuild()
		return m, nil
	}
	return m, nil
}

func (m *HistoryModel) rebuild() {
	m.viewport.SetContent(m.render())
}

func (m HistoryModel) render() string {
	var sb strings.Builder
	sb.WriteString("\n" + sectionHeader.Render(fmt.Sprintf("  Posted records (%d)", len(m.entries))) + "\n\n")
	if len(m.entries) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}

	text := &record.TextRenderer{}
	for i, e := range m.entries {
		toggle := dimStyle.Render("  ▶ ")
		if m.expanded[i] {
			toggle = dimStyle.Render("  ▼ ")
		}
		ts := timeStyle.Render(e.PostedAt.Local().Format("2006-01-02 15:04"))
		desc := e.Payload.Description
		if desc == "" {
			desc = dimStyle.Render("(no description)")
		}
		row := fmt.Sprintf("%s%s  %s  %s", toggle, ts, labelStyle.Render(e.Payload.ElapsedFormatted), desc)
		if i == m.cursor && m.width > 2 {
			row = selectedRowStyle.Width(m.width - 2).Render(row)
		}
		sb.WriteString(row + "\n")

		if m.expanded[i] {
			body, err := text.Render(&e.Payload)
			if err != nil {
				body = []byte(err.Error())
			}
			sb.WriteString(indent(string(body), "      "))
			if e.RemoteID != "" {
				sb.WriteString("      " + dimStyle.Render("remote id "+e.RemoteID) + "\n")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m HistoryModel) View() string {
	if !m.ready {
		return "Loading…"
	}
	title := titleStyle.Width(m.width).Render("  worktimer history  " + m.source)

	hint := "  ↑/↓ select  enter expand/collapse  q quit"
	pct := fmt.Sprintf("%3.0f%%", m.viewport.ScrollPercent()*100)
	pad := m.width - len([]rune(hint)) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	status := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)
	return title + "\n" + m.viewport.View() + "\n" + status
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// RunHistory starts the history viewer.
func RunHistory(entries []ledger.Entry, source string) error {
	p := tea.NewProgram(NewHistory(entries, source), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
