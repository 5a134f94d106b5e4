package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Hit     key.Binding
	Stand   key.Binding
	Split   key.Binding
	Start   key.Binding
	Restart key.Binding
	Stop    key.Binding
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Hit:     key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "hit")),
		Stand:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stand")),
		Split:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "split")),
		Start:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new round")),
		Restart: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "restart")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "scroll up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "scroll down")),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Hit, k.Stand, k.Split, k.Start, k.Stop, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Hit, k.Stand, k.Split},
		{k.Start, k.Restart, k.Stop},
		{k.Up, k.Down, k.Quit},
	}
}
