package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/ui"
	"github.com/kastheco/tareas/ui/overlay"
)

// helpLine is one key and its description on the help screen.
type helpLine struct{ key, desc string }

var helpSections = []struct {
	title string
	lines []helpLine
}{
	{"tareas:", []helpLine{
		{"n", "nueva tarea"},
		{"e", "editar descripción"},
		{"↵/x", "completar / reabrir"},
		{"p", "cambiar prioridad"},
		{"1/2/3", "prioridad Alta / Media / Baja"},
		{"d", "eliminar"},
		{"y", "copiar descripción"},
	}},
	{"selección:", []helpLine{
		{"space", "seleccionar tarea"},
		{"a", "seleccionar página"},
		{"u", "limpiar selección"},
		{"c / C", "completar / reabrir seleccionadas"},
	}},
	{"vista:", []helpLine{
		{"↑↓ / jk", "mover cursor"},
		{"←→ / hl", "página anterior / siguiente"},
		{"g", "primera página"},
		{"/", "buscar"},
		{"s / S", "columna de orden / invertir orden"},
		{"z", "tamaño de página"},
		{"v", "vista tabla / compacta"},
		{"t", "tema"},
		{"H", "historial de actividad"},
	}},
	{"datos:", []helpLine{
		{"r", "recargar"},
		{"E", "exportar CSV local"},
		{"ctrl+e", "descargar exportación del servidor"},
		{"?", "ayuda"},
		{"q", "salir"},
	}},
}

func helpContent() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.Active.Iris)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.Active.Foam)
	keyStyle := lipgloss.NewStyle().Bold(true).Foreground(ui.Active.Gold).Width(10)
	descStyle := lipgloss.NewStyle().Foreground(ui.Active.Text)

	lines := []string{
		titleStyle.Render("tareas"),
		descStyle.Render("gestor de tareas sobre la API REST de tareas"),
	}
	for _, section := range helpSections {
		lines = append(lines, "", headerStyle.Render(section.title))
		for _, l := range section.lines {
			lines = append(lines, keyStyle.Render(l.key)+descStyle.Render(l.desc))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// showHelpScreen opens the help overlay. Visible toasts are paused until it
// is dismissed so their countdown does not run out behind it.
func (m *home) showHelpScreen() {
	var paused []string
	center := m.svc.Center
	if center != nil {
		for _, n := range center.Visible() {
			if center.Pause(n.ID) {
				paused = append(paused, n.ID)
			}
		}
	}

	m.textOverlay = overlay.NewTextOverlay(helpContent())
	m.textOverlay.SetWidth(max(40, int(float32(m.width)*0.6)))
	m.textOverlay.OnDismiss = func() {
		for _, id := range paused {
			center.Resume(id)
		}
		if err := m.svc.Prefs.MarkHelpSeen(); err != nil {
			log.WarningLog.Printf("failed to save help screen state: %v", err)
		}
	}
	m.setState(stateHelp)
}

// showFirstRunHelp opens the help screen once, on the first launch.
func (m *home) showFirstRunHelp() {
	if m.svc.Prefs.HelpSeen() {
		return
	}
	m.showHelpScreen()
}

// handleHelpState handles key events when in help state
func (m *home) handleHelpState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key press will close the help overlay
	if m.textOverlay == nil || m.textOverlay.HandleKeyPress(msg) {
		m.textOverlay = nil
		m.setState(stateDefault)
		// A prompt may have opened while help was showing.
		m.syncPrompts()
	}
	return m, nil
}
