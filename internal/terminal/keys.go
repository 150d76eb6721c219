package terminal

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Add     key.Binding
	Remove  key.Binding
	Refresh key.Binding
	Filter  key.Binding
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Remove:  key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "remove")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter news")),
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Confirm: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

func (k keyMap) browseHelp() []key.Binding {
	return []key.Binding{k.Add, k.Remove, k.Refresh, k.Filter, k.Up, k.Quit}
}

func (k keyMap) inputHelp() []key.Binding {
	return []key.Binding{k.Confirm, k.Cancel}
}
