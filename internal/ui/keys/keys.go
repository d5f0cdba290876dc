package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings shared by every screen.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	Enter    key.Binding
	Back     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Save     key.Binding

	// Box score editor
	Section   key.Binding
	AddRow    key.Binding
	RemoveRow key.Binding

	// Actions on the selected row
	New     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Toggle  key.Binding
	Refresh key.Binding

	// Screen-specific secondary actions
	NewTag    key.Binding
	DeleteTag key.Binding
	Today     key.Binding
	Season    key.Binding
	Dimension key.Binding
	Stats     key.Binding

	// Screens
	Screen1    key.Binding
	Screen2    key.Binding
	Screen3    key.Binding
	Screen4    key.Binding
	Screen5    key.Binding
	NextScreen key.Binding
	PrevScreen key.Binding

	Login  key.Binding
	Logout key.Binding
	Help   key.Binding
	Quit   key.Binding
}

// DefaultKeyMap returns the built-in bindings: vim-style movement alongside
// the arrow keys.
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
		Left: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "prev"),
		),
		Right: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-tab", "prev field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("C-s", "save"),
		),
		Section: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "next section"),
		),
		AddRow: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("C-a", "add row"),
		),
		RemoveRow: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "remove row"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "x"),
			key.WithHelp("space", "toggle"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		NewTag: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "new tag"),
		),
		DeleteTag: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete tag"),
		),
		Today: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "today"),
		),
		Season: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "season"),
		),
		Dimension: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "players/users"),
		),
		Stats: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "leaderboards"),
		),
		Screen1:    key.NewBinding(key.WithKeys("1")),
		Screen2:    key.NewBinding(key.WithKeys("2")),
		Screen3:    key.NewBinding(key.WithKeys("3")),
		Screen4:    key.NewBinding(key.WithKeys("4")),
		Screen5:    key.NewBinding(key.WithKeys("5")),
		NextScreen: key.NewBinding(key.WithKeys("]", "ctrl+n")),
		PrevScreen: key.NewBinding(key.WithKeys("[", "ctrl+p")),
		Login: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "log in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "log out"),
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

// Screens returns the direct screen bindings in order.
func (k KeyMap) Screens() []key.Binding {
	return []key.Binding{k.Screen1, k.Screen2, k.Screen3, k.Screen4, k.Screen5}
}
