package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up           key.Binding
	Down         key.Binding
	Applied      key.Binding
	Suggested    key.Binding
	Disabled     key.Binding
	Remove       key.Binding
	CyclePages   key.Binding
	SaveVendor   key.Binding
	SaveTemplate key.Binding
	Rerun        key.Binding
	Retry        key.Binding
	Dismiss      key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Applied: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "apply"),
	),
	Suggested: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "suggest"),
	),
	Disabled: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "disable"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove"),
	),
	CyclePages: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "cycle pages"),
	),
	SaveVendor: key.NewBinding(
		key.WithKeys("V"),
		key.WithHelp("V", "save vendor rule"),
	),
	SaveTemplate: key.NewBinding(
		key.WithKeys("T"),
		key.WithHelp("T", "save template rule"),
	),
	Rerun: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "rerun extraction"),
	),
	Retry: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry"),
	),
	Dismiss: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "dismiss error"),
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
