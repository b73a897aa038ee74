package overlay

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/kastheco/tareas/ui"
)

// ThemeTareas returns a huh theme built from the active palette.
func ThemeTareas() *huh.Theme {
	p := ui.Active
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(p.Iris)
	t.Focused.Card = t.Focused.Base
	t.Focused.Title = t.Focused.Title.Foreground(p.Iris).Bold(true)
	t.Focused.NoteTitle = t.Focused.NoteTitle.Foreground(p.Iris).Bold(true).MarginBottom(1)
	t.Focused.Description = t.Focused.Description.Foreground(p.Muted)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(p.Love)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(p.Love)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(p.Iris)
	t.Focused.NextIndicator = t.Focused.NextIndicator.Foreground(p.Iris)
	t.Focused.PrevIndicator = t.Focused.PrevIndicator.Foreground(p.Iris)
	t.Focused.Option = t.Focused.Option.Foreground(p.Text)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(p.Foam)
	t.Focused.UnselectedOption = t.Focused.UnselectedOption.Foreground(p.Text)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Foreground(p.Base).Background(p.Iris)
	t.Focused.Next = t.Focused.FocusedButton
	t.Focused.BlurredButton = t.Focused.BlurredButton.Foreground(p.Subtle).Background(p.Overlay)

	t.Focused.TextInput.Cursor = t.Focused.TextInput.Cursor.Foreground(p.Foam)
	t.Focused.TextInput.Placeholder = t.Focused.TextInput.Placeholder.Foreground(p.Muted)
	t.Focused.TextInput.Prompt = t.Focused.TextInput.Prompt.Foreground(p.Iris)
	t.Focused.TextInput.Text = t.Focused.TextInput.Text.Foreground(p.Text)

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())
	t.Blurred.Card = t.Blurred.Base
	t.Blurred.NextIndicator = lipgloss.NewStyle()
	t.Blurred.PrevIndicator = lipgloss.NewStyle()

	t.Group.Title = t.Focused.Title
	t.Group.Description = t.Focused.Description

	return t
}
