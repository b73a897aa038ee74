package overlay

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/ui"
)

// FormOverlay is the new-task form: a description input and an inline
// priority select, backed by huh.Form.
type FormOverlay struct {
	form      *huh.Form
	descVal   string
	priority  task.Priority
	title     string
	submitted bool
	canceled  bool
	errMsg    string
	width     int
}

// NewFormOverlay creates a form overlay. priority is preselected; an invalid
// value falls back to task.DefaultPriority.
func NewFormOverlay(title string, width int, priority task.Priority) *FormOverlay {
	if !priority.Valid() {
		priority = task.DefaultPriority
	}
	f := &FormOverlay{
		title:    title,
		width:    width,
		priority: priority,
	}

	formWidth := max(width-6, 34)

	options := make([]huh.Option[task.Priority], len(task.Priorities))
	for i, p := range task.Priorities {
		options[i] = huh.NewOption(string(p), p)
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("descripcion").
				Title("descripción").
				Placeholder("¿Qué hay que hacer?").
				Value(&f.descVal),
			huh.NewSelect[task.Priority]().
				Key("prioridad").
				Title("prioridad").
				Options(options...).
				Inline(true).
				Value(&f.priority),
		),
	).
		WithTheme(ThemeTareas()).
		WithWidth(formWidth).
		WithShowHelp(false).
		WithShowErrors(false)

	_ = f.form.Init()

	return f
}

func (f *FormOverlay) updateForm(msg tea.Msg) {
	updated, _ := f.form.Update(msg)
	if form, ok := updated.(*huh.Form); ok {
		f.form = form
	}
}

// Reject reopens a submitted form and shows msg above the hint line.
func (f *FormOverlay) Reject(msg string) {
	f.submitted = false
	f.errMsg = msg
}

// HandleKeyPress processes a key and returns true when the overlay should close.
func (f *FormOverlay) HandleKeyPress(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyEsc:
		f.canceled = true
		return true

	case tea.KeyEnter:
		if strings.TrimSpace(f.descVal) == "" {
			return false
		}
		f.submitted = true
		return true

	case tea.KeyTab, tea.KeyDown:
		f.updateForm(huh.NextField())
		return false

	case tea.KeyShiftTab, tea.KeyUp:
		f.updateForm(huh.PrevField())
		return false

	default:
		f.errMsg = ""
		f.updateForm(msg)
		return false
	}
}

// Render returns the styled overlay string.
func (f *FormOverlay) Render() string {
	w := max(f.width, 40)

	titleStyle := lipgloss.NewStyle().
		Foreground(ui.Active.Iris).
		Bold(true).
		MarginBottom(1)

	hintStyle := lipgloss.NewStyle().
		Foreground(ui.Active.Muted).
		MarginTop(1)

	content := titleStyle.Render(f.title) + "\n"
	content += f.form.View() + "\n"
	if f.errMsg != "" {
		content += lipgloss.NewStyle().Foreground(ui.Active.Love).Render(wordwrap.String(f.errMsg, w-6)) + "\n"
	}
	content += hintStyle.Render("tab/↑↓ navigate · ←→ priority · enter create")

	style := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ui.Active.Iris).
		Padding(1, 2).
		Width(w)

	return style.Render(content)
}

// Description returns the trimmed description.
func (f *FormOverlay) Description() string {
	return strings.TrimSpace(f.descVal)
}

// Priority returns the selected priority.
func (f *FormOverlay) Priority() task.Priority {
	if !f.priority.Valid() {
		return task.DefaultPriority
	}
	return f.priority
}

// IsSubmitted returns true when the form was submitted.
func (f *FormOverlay) IsSubmitted() bool {
	return f.submitted
}

// IsCanceled returns true when the form was dismissed.
func (f *FormOverlay) IsCanceled() bool {
	return f.canceled
}
