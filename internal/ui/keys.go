package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds all key bindings for the application.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Top       key.Binding
	Bottom    key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	Export    key.Binding
	Rescan    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
	Help      key.Binding
	Close     key.Binding

	// Sort
	SortWasted key.Binding
	SortSize   key.Binding
	SortCount  key.Binding
	SortPath   key.Binding
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
		Top: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("g", "first group"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("G", "last group"),
		),
		Expand: key.NewBinding(
			key.WithKeys("enter", "right", "l"),
			key.WithHelp("enter/l", "expand"),
		),
		Collapse: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "collapse"),
		),
		Export: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "export"),
		),
		Rescan: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "search again"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		SortWasted: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "sort: wasted"),
		),
		SortSize: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort: size"),
		),
		SortCount: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "sort: count"),
		),
		SortPath: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "sort: path"),
		),
	}
}
