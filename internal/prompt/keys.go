package prompt

import "github.com/charmbracelet/bubbles/key"

// entryKeyMap defines key bindings for the entry screen.
// Digits, arrows and backspace go to the code input and are listed for help only.
type entryKeyMap struct {
	Navigate key.Binding
	Paste    key.Binding
	Submit   key.Binding
	Clear    key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k entryKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Navigate, k.Paste, k.Submit, k.Clear, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k entryKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Navigate, k.Paste},
		{k.Submit, k.Clear, k.Quit},
	}
}

// verifyingKeyMap defines key bindings while a verification is in flight
type verifyingKeyMap struct {
	Cancel key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k verifyingKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cancel}
}

// FullHelp returns keybindings for the expanded help view
func (k verifyingKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Cancel}}
}

// failureKeyMap defines key bindings for the failure screen
type failureKeyMap struct {
	Retry key.Binding
	Quit  key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k failureKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Retry, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k failureKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Retry, k.Quit}}
}

func newEntryKeyMap() entryKeyMap {
	return entryKeyMap{
		Navigate: key.NewBinding(
			key.WithKeys("left", "right", "tab", "shift+tab"),
			key.WithHelp("←/→", "move"),
		),
		Paste: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("ctrl+v", "paste"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "verify"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "clear"),
		),
		Quit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

func newVerifyingKeyMap() verifyingKeyMap {
	return verifyingKeyMap{
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

func newFailureKeyMap() failureKeyMap {
	return failureKeyMap{
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "try again"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "enter"),
			key.WithHelp("q", "quit"),
		),
	}
}
