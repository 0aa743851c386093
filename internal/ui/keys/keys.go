package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding the terminal client understands
type KeyMap struct {
	Quit   key.Binding
	Back   key.Binding
	Help   key.Binding
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	New    key.Binding
	Delete key.Binding
	Tab    key.Binding
	Save   key.Binding
	Reload key.Binding

	// Views
	Tasks    key.Binding
	Mentions key.Binding
	Audit    key.Binding
	Theme    key.Binding

	// Selected task
	CycleStatus   key.Binding
	CyclePriority key.Binding

	// Filters
	FilterStatus   key.Binding
	FilterPriority key.Binding
	FilterCategory key.Binding
	ClearFilter    key.Binding

	// Comment panel
	Comment       key.Binding
	CommentUp     key.Binding
	CommentDown   key.Binding
	EditComment   key.Binding
	DeleteComment key.Binding

	Confirm key.Binding
	Deny    key.Binding
}

// DefaultKeyMap returns the default bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("↵", "comments"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Tasks: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "tasks"),
		),
		Mentions: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "mentions"),
		),
		Audit: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "audit"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "theme"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "status"),
		),
		CyclePriority: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "priority"),
		),
		FilterStatus: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "filter status"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("P"),
			key.WithHelp("P", "filter priority"),
		),
		FilterCategory: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "filter category"),
		),
		ClearFilter: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		Comment: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "comment"),
		),
		CommentUp: key.NewBinding(
			key.WithKeys("K"),
			key.WithHelp("K", "prev comment"),
		),
		CommentDown: key.NewBinding(
			key.WithKeys("J"),
			key.WithHelp("J", "next comment"),
		),
		EditComment: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit comment"),
		),
		DeleteComment: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete comment"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y", "Y"),
			key.WithHelp("y", "yes"),
		),
		Deny: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
	}
}
