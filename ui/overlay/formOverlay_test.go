package overlay

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/task"
)

func typeRunes(f interface{ HandleKeyPress(tea.KeyMsg) bool }, s string) {
	for _, r := range s {
		f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestFormOverlay_SubmitWithDescription(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityAlta)
	typeRunes(f, "Comprar pan")

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, closed)
	assert.True(t, f.IsSubmitted())
	assert.Equal(t, "Comprar pan", f.Description())
	assert.Equal(t, task.PriorityAlta, f.Priority())
}

func TestFormOverlay_InvalidPriorityFallsBack(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, "")
	assert.Equal(t, task.DefaultPriority, f.Priority())
}

func TestFormOverlay_EmptyDescriptionDoesNotSubmit(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityMedia)
	typeRunes(f, "   ")

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, closed)
	assert.False(t, f.IsSubmitted())
}

func TestFormOverlay_EscCancels(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityMedia)

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEsc})
	assert.True(t, closed)
	assert.True(t, f.IsCanceled())
	assert.False(t, f.IsSubmitted())
}

func TestFormOverlay_TabAwayAndBackKeepsDescription(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityMedia)
	typeRunes(f, "a")
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyTab})
	f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyShiftTab})
	typeRunes(f, "b")

	closed := f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, closed)
	assert.Equal(t, "ab", f.Description())
}

func TestFormOverlay_RejectReopensWithMessage(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityMedia)
	typeRunes(f, "Comprar pan")
	require.True(t, f.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEnter}))

	f.Reject("A task with that description already exists.")
	assert.False(t, f.IsSubmitted())
	assert.Contains(t, ansi.Strip(f.Render()), "already exists")

	typeRunes(f, "!")
	assert.NotContains(t, ansi.Strip(f.Render()), "already exists", "typing clears the error")
}

func TestFormOverlay_Render(t *testing.T) {
	f := NewFormOverlay("nueva tarea", 60, task.PriorityBaja)

	output := ansi.Strip(f.Render())
	assert.Contains(t, output, "nueva tarea")
	assert.Contains(t, output, "prioridad")
	assert.Contains(t, output, "Baja")
}
