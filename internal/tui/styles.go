package tui

import "github.com/charmbracelet/lipgloss"

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	stateStyles = map[string]lipgloss.Style{
		"idle":    lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
		"running": lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		"stopped": lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}

	toastOKStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	toastErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	// Selected row in the history list
	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)
