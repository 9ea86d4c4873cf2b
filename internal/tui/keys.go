package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the playground.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Stack
	Success key.Binding
	Error   key.Binding
	Info    key.Binding
	Warning key.Binding
	Sticky  key.Binding
	Dismiss key.Binding
	Clear   key.Binding

	// Views
	Enter   key.Binding
	Back    key.Binding
	History key.Binding
	Copy    key.Binding
	CopyAll key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Success, k.Error, k.Dismiss, k.Clear, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Success, k.Error, k.Info, k.Warning},
		{k.Sticky, k.Dismiss, k.Clear, k.History},
		{k.Copy, k.CopyAll, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Success: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "add success"),
		),
		Error: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "add error"),
		),
		Info: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "add info"),
		),
		Warning: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "add warning"),
		),
		Sticky: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle sticky"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "dismiss"),
		),
		Clear: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear all"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "view details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy as JSON"),
		),
		CopyAll: key.NewBinding(
			key.WithKeys("Y"),
			key.WithHelp("Y", "copy all as YAML"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
