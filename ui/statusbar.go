package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kastheco/tareas/connectivity"
	"github.com/kastheco/tareas/view"
)

// StatusBarData holds the counters and view settings shown in the status bar.
type StatusBarData struct {
	Total    int
	Pending  int
	Filtered int
	Page     int
	Pages    int
	PageSize int
	Selected int
	Search   string
	SortKey  view.SortKey
	Order    view.SortOrder
	Status   connectivity.Status
	// Busy is the number of commands still running.
	Busy int
}

// StatusBar is the top status bar component.
type StatusBar struct {
	width int
	data  StatusBarData
}

func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

func (s *StatusBar) SetSize(width int) {
	s.width = width
}

func (s *StatusBar) SetData(data StatusBarData) {
	s.data = data
}

const statusBarSep = " │ "

func (s *StatusBar) String() string {
	if s.width < 10 {
		return ""
	}
	bg := lipgloss.NewStyle().Background(Active.Surface)
	text := bg.Foreground(Active.Text)
	subtle := bg.Foreground(Active.Subtle)

	parts := make([]string, 0, 8)
	parts = append(parts, bg.Foreground(Active.Iris).Bold(true).Render("tareas"))
	parts = append(parts, text.Render(fmt.Sprintf("%d pendientes / %d", s.data.Pending, s.data.Total)))

	if s.data.Search != "" {
		parts = append(parts, bg.Foreground(Active.Foam).Render(fmt.Sprintf("/%s (%d)", s.data.Search, s.data.Filtered)))
	}
	if s.data.Selected > 0 {
		parts = append(parts, bg.Foreground(Active.Gold).Render(fmt.Sprintf("%d seleccionadas", s.data.Selected)))
	}

	order := "▼"
	if s.data.Order == view.Asc {
		order = "▲"
	}
	parts = append(parts, subtle.Render(fmt.Sprintf("%s %s", s.data.SortKey, order)))
	parts = append(parts, subtle.Render(fmt.Sprintf("pág %d/%d · %d", s.data.Page, max(s.data.Pages, 1), s.data.PageSize)))

	if s.data.Busy > 0 {
		parts = append(parts, bg.Foreground(Active.Gold).Render("…"))
	}
	if s.data.Status == connectivity.Blocked {
		parts = append(parts, bg.Foreground(Active.Love).Bold(true).Render("sin conexión"))
	} else {
		parts = append(parts, bg.Foreground(Active.Foam).Render("●"))
	}

	sep := bg.Foreground(Active.Overlay).Render(statusBarSep)
	content := strings.Join(parts, sep)

	return bg.Padding(0, 1).Width(s.width).MaxHeight(1).Render(content)
}
