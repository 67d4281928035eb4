package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the catalog browser's key bindings.
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	More      key.Binding
	Previous  key.Binding
	Retry     key.Binding
	Details   key.Binding
	Add       key.Binding
	Increase  key.Binding
	Decrease  key.Binding
	Cart      key.Binding
	ClearCart key.Binding
	Checkout  key.Binding
	Image     key.Binding
	Back      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		More: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("→/n", "load more"),
		),
		Previous: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("←/p", "previous"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Details: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add to cart"),
		),
		Increase: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "qty +1"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "qty -1"),
		),
		Cart: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cart"),
		),
		ClearCart: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear cart"),
		),
		Checkout: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "checkout"),
		),
		Image: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "open image"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.More, k.Previous, k.Add, k.Cart, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.More, k.Previous, k.Retry},
		{k.Details, k.Image, k.Back},
		{k.Add, k.Increase, k.Decrease, k.Cart, k.ClearCart, k.Checkout},
		{k.Help, k.Quit},
	}
}
