package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kastheco/tareas/keys"
)

const (
	separator         = " • "
	verticalSeparator = " │ "
)

// MenuState represents different states the menu can be in
type MenuState int

const (
	StateDefault MenuState = iota
	StateEmpty
	StateSelection
	StatePrompt
	StateOffline
)

// Menu is the bottom key hint bar. Options are grouped and the groups are
// separated by a vertical bar.
type Menu struct {
	groups        [][]keys.KeyName
	height, width int
	state         MenuState

	// keyDown is the key which is pressed. The default is -1.
	keyDown keys.KeyName
}

var (
	defaultMenuGroups = [][]keys.KeyName{
		{keys.KeyNew, keys.KeyEdit, keys.KeyToggle, keys.KeyPriority, keys.KeyDelete},
		{keys.KeySelect, keys.KeySearch, keys.KeySort, keys.KeyPrevPage, keys.KeyNextPage},
		{keys.KeyHelp, keys.KeyQuit},
	}
	emptyMenuGroups = [][]keys.KeyName{
		{keys.KeyNew, keys.KeyRefresh},
		{keys.KeySearch, keys.KeyHelp, keys.KeyQuit},
	}
	selectionMenuGroups = [][]keys.KeyName{
		{keys.KeyCompleteSel, keys.KeyReopenSel, keys.KeyAlta, keys.KeyDelete, keys.KeyExport},
		{keys.KeySelect, keys.KeySelectPage, keys.KeyClearSelect},
		{keys.KeyHelp, keys.KeyQuit},
	}
	promptMenuGroups  = [][]keys.KeyName{{keys.KeySubmit, keys.KeyCancel}}
	offlineMenuGroups = [][]keys.KeyName{{keys.KeyRefresh, keys.KeyQuit}}
)

func NewMenu() *Menu {
	return &Menu{
		groups:  emptyMenuGroups,
		state:   StateEmpty,
		keyDown: -1,
	}
}

func (m *Menu) Keydown(name keys.KeyName) {
	m.keyDown = name
}

func (m *Menu) ClearKeydown() {
	m.keyDown = -1
}

// SetState updates the menu state and options accordingly
func (m *Menu) SetState(state MenuState) {
	m.state = state
	switch state {
	case StateEmpty:
		m.groups = emptyMenuGroups
	case StateSelection:
		m.groups = selectionMenuGroups
	case StatePrompt:
		m.groups = promptMenuGroups
	case StateOffline:
		m.groups = offlineMenuGroups
	default:
		m.groups = defaultMenuGroups
	}
}

func (m *Menu) State() MenuState { return m.state }

// SetSize sets the width of the window. The menu will be centered horizontally within this width.
func (m *Menu) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Menu) String() string {
	keyStyle := lipgloss.NewStyle().Foreground(Active.Subtle)
	descStyle := lipgloss.NewStyle().Foreground(Active.Muted)
	sepStyle := lipgloss.NewStyle().Foreground(Active.Overlay)
	actionStyle := lipgloss.NewStyle().Foreground(Active.Rose)

	var s strings.Builder
	for gi, group := range m.groups {
		if gi > 0 {
			s.WriteString(sepStyle.Render(verticalSeparator))
		}
		// The first group holds the actions on tasks when there is more than one.
		inActionGroup := gi == 0 && len(m.groups) > 1
		for i, k := range group {
			if i > 0 {
				s.WriteString(sepStyle.Render(separator))
			}
			help := keys.GlobalkeyBindings[k].Help()

			localKey, localDesc := keyStyle, descStyle
			if inActionGroup {
				localKey = actionStyle
			}
			if m.keyDown == k {
				localKey = localKey.Underline(true)
				localDesc = localDesc.Underline(true)
			}
			s.WriteString(localKey.Render(help.Key))
			s.WriteString(" ")
			s.WriteString(localDesc.Render(help.Desc))
		}
	}

	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s.String())
}
