package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyName int

const (
	KeyUp KeyName = iota
	KeyDown
	KeyPrevPage
	KeyNextPage
	KeyFirst

	KeyNew
	KeyEdit
	KeyToggle   // Toggle completed on the task under the cursor
	KeyPriority // Cycle the priority of the task under the cursor
	KeyDelete

	KeySelect      // Toggle selection of the task under the cursor
	KeySelectPage  // Select every task on the page
	KeyClearSelect // Clear the selection
	KeyCompleteSel // Complete every selected task
	KeyReopenSel   // Mark every selected task pending

	KeyAlta
	KeyMedia
	KeyBaja

	KeySearch
	KeySort
	KeySortOrder
	KeyPageSize

	KeyRefresh
	KeyExport
	KeyServerExport
	KeyCopy
	KeyHistory
	KeyTheme
	KeyViewMode
	KeyHelp
	KeyQuit

	KeySubmit // Special keybinding for submitting a prompt
	KeyCancel // Special keybinding for closing a prompt
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"up":     KeyUp,
	"k":      KeyUp,
	"down":   KeyDown,
	"j":      KeyDown,
	"left":   KeyPrevPage,
	"h":      KeyPrevPage,
	"right":  KeyNextPage,
	"l":      KeyNextPage,
	"g":      KeyFirst,
	"n":      KeyNew,
	"e":      KeyEdit,
	"enter":  KeyToggle,
	"x":      KeyToggle,
	"p":      KeyPriority,
	"d":      KeyDelete,
	"delete": KeyDelete,
	" ":      KeySelect,
	"a":      KeySelectPage,
	"u":      KeyClearSelect,
	"c":      KeyCompleteSel,
	"C":      KeyReopenSel,
	"1":      KeyAlta,
	"2":      KeyMedia,
	"3":      KeyBaja,
	"/":      KeySearch,
	"s":      KeySort,
	"S":      KeySortOrder,
	"z":      KeyPageSize,
	"r":      KeyRefresh,
	"E":      KeyExport,
	"ctrl+e": KeyServerExport,
	"y":      KeyCopy,
	"H":      KeyHistory,
	"t":      KeyTheme,
	"v":      KeyViewMode,
	"?":      KeyHelp,
	"q":      KeyQuit,
	"ctrl+c": KeyQuit,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeyUp: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	KeyDown: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	KeyPrevPage: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev page"),
	),
	KeyNextPage: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next page"),
	),
	KeyFirst: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "first page"),
	),
	KeyNew: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new"),
	),
	KeyEdit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit"),
	),
	KeyToggle: key.NewBinding(
		key.WithKeys("enter", "x"),
		key.WithHelp("↵/x", "done"),
	),
	KeyPriority: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "priority"),
	),
	KeyDelete: key.NewBinding(
		key.WithKeys("d", "delete"),
		key.WithHelp("d", "delete"),
	),
	KeySelect: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "select"),
	),
	KeySelectPage: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "select page"),
	),
	KeyClearSelect: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unselect"),
	),
	KeyCompleteSel: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "complete selected"),
	),
	KeyReopenSel: key.NewBinding(
		key.WithKeys("C"),
		key.WithHelp("C", "reopen selected"),
	),
	KeyAlta: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1/2/3", "alta/media/baja"),
	),
	KeyMedia: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "media"),
	),
	KeyBaja: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "baja"),
	),
	KeySearch: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	KeySort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sort"),
	),
	KeySortOrder: key.NewBinding(
		key.WithKeys("S"),
		key.WithHelp("S", "flip order"),
	),
	KeyPageSize: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "page size"),
	),
	KeyRefresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	KeyExport: key.NewBinding(
		key.WithKeys("E"),
		key.WithHelp("E", "export csv"),
	),
	KeyServerExport: key.NewBinding(
		key.WithKeys("ctrl+e"),
		key.WithHelp("ctrl+e", "server export"),
	),
	KeyCopy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy"),
	),
	KeyHistory: key.NewBinding(
		key.WithKeys("H"),
		key.WithHelp("H", "history"),
	),
	KeyTheme: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "theme"),
	),
	KeyViewMode: key.NewBinding(
		key.WithKeys("v"),
		key.WithHelp("v", "compact"),
	),
	KeyHelp: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),

	// -- Special keybindings --

	KeySubmit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	KeyCancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}
