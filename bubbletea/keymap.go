package bubbletea

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the review screen.
type KeyMap struct {
	// Navigation
	Up           key.Binding
	Down         key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	GotoTop      key.Binding
	GotoBottom   key.Binding
	NextIssue    key.Binding
	PrevIssue    key.Binding

	// Editing
	NextDay   key.Binding
	PrevDay   key.Binding
	Morning   key.Binding
	Afternoon key.Binding
	Evening   key.Binding
	Night     key.Binding
	Mark      key.Binding
	ClearMark key.Binding
	Ripple    key.Binding
	Undo      key.Binding
	Redo      key.Binding

	// Output
	Copy   key.Binding
	Commit key.Binding

	// General
	Help key.Binding
	Quit key.Binding
}

// DefaultKeyMap returns the default vim-style key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		GotoTop: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first scene"),
		),
		GotoBottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "last scene"),
		),
		NextIssue: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next flagged"),
		),
		PrevIssue: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous flagged"),
		),
		NextDay: key.NewBinding(
			key.WithKeys("l", "right", "+"),
			key.WithHelp("l/→", "+1 day"),
		),
		PrevDay: key.NewBinding(
			key.WithKeys("h", "left", "-"),
			key.WithHelp("h/←", "-1 day"),
		),
		Morning: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "morning"),
		),
		Afternoon: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "afternoon"),
		),
		Evening: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "evening"),
		),
		Night: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "night"),
		),
		Mark: key.NewBinding(
			key.WithKeys("x", " "),
			key.WithHelp("x", "mark for batch"),
		),
		ClearMark: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear marks"),
		),
		Ripple: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "toggle ripple"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+r", "U"),
			key.WithHelp("ctrl+r", "redo"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy when"),
		),
		Commit: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "commit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextDay, k.PrevDay, k.Mark, k.Ripple, k.Undo, k.Commit, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.HalfPageUp, k.HalfPageDown, k.GotoTop, k.GotoBottom, k.NextIssue, k.PrevIssue},
		{k.NextDay, k.PrevDay, k.Morning, k.Afternoon, k.Evening, k.Night},
		{k.Mark, k.ClearMark, k.Ripple, k.Undo, k.Redo},
		{k.Copy, k.Commit, k.Help, k.Quit},
	}
}
