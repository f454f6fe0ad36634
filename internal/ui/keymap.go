package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines keyboard shortcuts for the mint screen
type KeyMap struct {
	Quit key.Binding
	Help key.Binding

	Increase key.Binding
	Decrease key.Binding
	Mint     key.Binding
	Refresh  key.Binding
	Dismiss  key.Binding

	// Подтверждение подписи
	Approve key.Binding
	Reject  key.Binding

	ToggleLogs key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Increase: key.NewBinding(
			key.WithKeys("up", "+", "k"),
			key.WithHelp("↑/+", "more"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("down", "-", "j"),
			key.WithHelp("↓/-", "less"),
		),
		Mint: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "mint"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r/F5", "refresh"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Approve: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "approve"),
		),
		Reject: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "reject"),
		),
		ToggleLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle logs"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Mint, k.Increase, k.Decrease, k.Refresh, k.ToggleLogs, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Mint, k.Increase, k.Decrease},
		{k.Refresh, k.Dismiss, k.ToggleLogs},
		{k.Approve, k.Reject},
		{k.Help, k.Quit},
	}
}
