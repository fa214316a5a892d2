package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding

	// Navigation
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding

	// Poll actions
	DraftYes key.Binding
	DraftNo  key.Binding
	Vote     key.Binding
	Count    key.Binding
	Create   key.Binding

	// Create form
	NextField key.Binding
	Submit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Close"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),

		DraftYes: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Draft yes"),
		),
		DraftNo: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "Draft no"),
		),
		Vote: key.NewBinding(
			key.WithKeys("v", "enter"),
			key.WithHelp("v/enter", "Send drafted vote"),
		),
		Count: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Count poll"),
		),
		Create: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "New poll"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "Switch field"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Create poll"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.DraftYes, k.DraftNo, k.Vote, k.Count, k.Create, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.DraftYes, k.DraftNo, k.Vote, k.Count, k.Create},
		{k.NextField, k.Submit, k.Escape},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
