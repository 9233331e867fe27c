package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the key bindings of both screens.
type keyMap struct {
	Toggle     key.Binding
	More       key.Binding
	Less       key.Binding
	MoreBars   key.Binding
	FewerBars  key.Binding
	Colors     key.Binding
	Devices    key.Binding
	Up         key.Binding
	Down       key.Binding
	Select     key.Binding
	Back       key.Binding
	Quit       key.Binding
	devicePage bool
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "start/stop")),
		More:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "sensitivity")),
		Less:      key.NewBinding(key.WithKeys("-", "_")),
		MoreBars:  key.NewBinding(key.WithKeys("]"), key.WithHelp("[/]", "bars")),
		FewerBars: key.NewBinding(key.WithKeys("[")),
		Colors:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "colors")),
		Devices:   key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "devices")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "navigate")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
		Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap for the active screen.
func (k keyMap) ShortHelp() []key.Binding {
	if k.devicePage {
		return []key.Binding{k.Up, k.Select, k.Back, k.Quit}
	}
	return []key.Binding{k.Toggle, k.More, k.MoreBars, k.Colors, k.Devices, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
