package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Start       key.Binding
	StopOrReset key.Binding
	Reset       key.Binding
	Post        key.Binding
	Focus       key.Binding
	Blur        key.Binding
	Apply       key.Binding
	Quit        key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Start:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		StopOrReset: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Post:        key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "post")),
		Focus:       key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "edit fields")),
		Blur:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave field")),
		Apply:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "set duration")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Start, k.StopOrReset, k.Reset, k.Post, k.Focus, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Start, k.StopOrReset, k.Reset, k.Post},
		{k.Focus, k.Blur, k.Apply, k.Quit},
	}
}
