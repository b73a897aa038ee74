package overlay

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/broker"
)

func TestPlaceOverlay_AtPosition(t *testing.T) {
	bg := strings.Join([]string{"..........", "..........", ".........."}, "\n")
	out := ansi.Strip(PlaceOverlay(2, 1, "AB\nCD", bg, false))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "..........", lines[0])
	assert.Equal(t, "..AB......", lines[1])
	assert.Equal(t, "..CD......", lines[2])
}

func TestPlaceOverlay_Centered(t *testing.T) {
	bg := strings.Repeat("..........\n", 4) + ".........."
	out := ansi.Strip(PlaceOverlay(0, 0, "XX", bg, true))

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "....XX....", lines[2])
}

func TestPlaceOverlay_PadsShortBackground(t *testing.T) {
	out := ansi.Strip(PlaceOverlay(3, 2, "X", "ab", false))
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "   X", lines[2])
}

func TestConfirmOverlay_Render(t *testing.T) {
	req := broker.ConfirmRequest{
		Title:       "Delete task",
		Message:     `Delete "Comprar pan"? This cannot be undone.`,
		ConfirmText: "Delete",
		CancelText:  "Cancel",
		Danger:      true,
	}
	c := NewConfirmOverlay(req, 2)
	c.SetWidth(40)

	out := ansi.Strip(c.Render())
	assert.Contains(t, out, "Delete task")
	assert.Contains(t, out, "Comprar pan")
	assert.Contains(t, out, "esc  Cancel")
	assert.Contains(t, out, "enter  Delete")
	assert.Contains(t, out, "2 more waiting")
	assert.Equal(t, req, c.Request())

	for _, line := range strings.Split(c.Render(), "\n") {
		assert.LessOrEqual(t, ansi.StringWidth(line), 44)
	}
}

func TestTextOverlay_AnyKeyDismissesOnce(t *testing.T) {
	calls := 0
	o := NewTextOverlay("help text")
	o.OnDismiss = func() { calls++ }

	assert.Contains(t, ansi.Strip(o.Render()), "help text")
	assert.True(t, o.HandleKeyPress(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}}))
	assert.True(t, o.HandleKeyPress(tea.KeyMsg{Type: tea.KeyEsc}))
	assert.Equal(t, 1, calls)
}

func TestOfflineOverlay_Render(t *testing.T) {
	s := spinner.New()
	o := NewOfflineOverlay(&s)
	o.SetCause("dial tcp 127.0.0.1:8080: connection refused")

	out := ansi.Strip(o.Render())
	assert.Contains(t, out, "Sin conexión")
	assert.Contains(t, out, "connection refused")
	assert.Contains(t, out, "r reintentar")

	o.SetRetrying(true)
	assert.True(t, o.Retrying())
	assert.Contains(t, ansi.Strip(o.Render()), "reintentando")
}
