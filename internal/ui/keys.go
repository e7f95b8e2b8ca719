package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application. Printable keys
// belong to the input line, so every binding uses a modifier or a key the
// input line ignores.
type keyMap struct {
	// Global
	Quit           key.Binding
	Help           key.Binding
	CycleTheme     key.Binding
	ToggleTransfer key.Binding

	// Buffers
	NextBuffer   key.Binding
	PrevBuffer   key.Binding
	JumpBuffer   key.Binding
	PageUp       key.Binding
	PageDown     key.Binding
	ScrollBottom key.Binding

	// Input
	Submit      key.Binding
	HistoryPrev key.Binding
	HistoryNext key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),
		ToggleTransfer: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "Toggle transfers"),
		),

		NextBuffer: key.NewBinding(
			key.WithKeys("ctrl+n", "alt+right"),
			key.WithHelp("ctrl+n", "Next buffer"),
		),
		PrevBuffer: key.NewBinding(
			key.WithKeys("ctrl+p", "alt+left"),
			key.WithHelp("ctrl+p", "Previous buffer"),
		),
		JumpBuffer: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"),
			key.WithHelp("alt+1-9", "Jump to buffer"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Scroll down"),
		),
		ScrollBottom: key.NewBinding(
			key.WithKeys("ctrl+end", "end"),
			key.WithHelp("end", "Follow new lines"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Send"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("up", "Previous input"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("down", "Next input"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Buffers
		{k.NextBuffer, k.PrevBuffer, k.JumpBuffer},
		{k.PageUp, k.PageDown, k.ScrollBottom},
		// Input
		{k.Submit, k.HistoryPrev, k.HistoryNext},
		// General
		{k.ToggleTransfer, k.CycleTheme, k.Help, k.Quit},
	}
}
