package overlay

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/ui"
)

// ToastType identifies the kind of toast notification.
type ToastType int

const (
	ToastInfo ToastType = iota
	ToastSuccess
	ToastError
	ToastLoading
)

// AnimPhase represents the current animation phase of a toast.
type AnimPhase int

const (
	PhaseSlidingIn AnimPhase = iota
	PhaseVisible
	PhaseSlidingOut
	PhaseDone
)

// Display constants.
const (
	MinToastWidth = 30
	MaxToastWidth = 60

	// TickFPS is the rate the app sends ToastTickMsg while toasts animate.
	TickFPS = 20

	springFrequency = 8.0
	springDamping   = 1.0
	// settle is how close to its target an offset must get to end a slide.
	settle = 0.5
)

var idCounter atomic.Uint64

func typeOf(k notify.Kind) ToastType {
	switch k {
	case notify.KindSuccess:
		return ToastSuccess
	case notify.KindError:
		return ToastError
	default:
		return ToastInfo
	}
}

// toast is the render state of one notification.
type toast struct {
	ID      string
	Type    ToastType
	Title   string
	Message string
	Paused  bool
	Phase   AnimPhase
	Width   int

	// offset is how many cells the toast is pushed past its resting column.
	offset   float64
	velocity float64
}

// calcToastWidth covers border (2) + padding (2) + icon (up to 2) + space (1).
func calcToastWidth(title, msg string) int {
	contentWidth := 2 + 1 + max(runewidth.StringWidth(msg), runewidth.StringWidth(title)) + 4
	return clampInt(contentWidth, MinToastWidth, MaxToastWidth)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (t *toast) hidden() float64 { return float64(t.Width + 4) }

// ToastManager renders the notification center's entries. Lifetime, dedup
// and capacity belong to the center; the manager only mirrors its events
// and animates them in and out.
type ToastManager struct {
	toasts  []*toast
	spinner *spinner.Model
	spring  harmonica.Spring
	width   int
	height  int
}

// NewToastManager creates a new ToastManager with the given spinner model.
func NewToastManager(s *spinner.Model) *ToastManager {
	return &ToastManager{
		toasts:  make([]*toast, 0),
		spinner: s,
		spring:  harmonica.NewSpring(harmonica.FPS(TickFPS), springFrequency, springDamping),
	}
}

// SetSize updates the available viewport dimensions for toast positioning.
func (tm *ToastManager) SetSize(width, height int) {
	tm.width = width
	tm.height = height
}

func (tm *ToastManager) find(id string) *toast {
	for _, t := range tm.toasts {
		if t.ID == id && t.Phase != PhaseDone {
			return t
		}
	}
	return nil
}

// Apply mirrors one center event.
func (tm *ToastManager) Apply(ev notify.Event) {
	n := ev.Notification
	switch ev.Type {
	case notify.EventShown:
		if t := tm.find(n.ID); t != nil {
			tm.update(t, n)
			return
		}
		t := &toast{ID: n.ID, Phase: PhaseSlidingIn}
		tm.update(t, n)
		t.offset = t.hidden()
		tm.toasts = append(tm.toasts, t)
	case notify.EventReplaced:
		if t := tm.find(n.ID); t != nil {
			tm.update(t, n)
		}
	case notify.EventRemoved:
		if t := tm.find(n.ID); t != nil && t.Phase != PhaseSlidingOut {
			t.Phase = PhaseSlidingOut
		}
	}
}

func (tm *ToastManager) update(t *toast, n notify.Notification) {
	t.Type = typeOf(n.Kind)
	t.Title = n.Title
	t.Message = n.Message
	t.Paused = n.Paused
	t.Width = calcToastWidth(n.Title, n.Message)
	if t.Phase == PhaseSlidingOut {
		t.Phase = PhaseSlidingIn
	}
}

// Loading shows a spinner toast that stays until Resolve. Loading toasts are
// local to the UI and never pass through the center.
func (tm *ToastManager) Loading(msg string) string {
	t := &toast{
		ID:      fmt.Sprintf("loading-%d", idCounter.Add(1)),
		Type:    ToastLoading,
		Message: msg,
		Phase:   PhaseSlidingIn,
		Width:   calcToastWidth("", msg),
	}
	t.offset = t.hidden()
	tm.toasts = append(tm.toasts, t)
	return t.ID
}

// Resolve slides out the loading toast id.
func (tm *ToastManager) Resolve(id string) {
	if t := tm.find(id); t != nil {
		t.Phase = PhaseSlidingOut
	}
}

// HasActiveToasts returns true if there are any toasts that have not completed
// their animation cycle.
func (tm *ToastManager) HasActiveToasts() bool {
	for _, t := range tm.toasts {
		if t.Phase != PhaseDone {
			return true
		}
	}
	return false
}

// Animating reports whether a tick would change anything.
func (tm *ToastManager) Animating() bool {
	for _, t := range tm.toasts {
		if t.Phase == PhaseSlidingIn || t.Phase == PhaseSlidingOut || t.Type == ToastLoading {
			return true
		}
	}
	return false
}

// ToastTickMsg is sent by the main app every frame while toasts animate.
type ToastTickMsg struct{}

// Tick advances every slide by one spring step and drops finished toasts.
func (tm *ToastManager) Tick() {
	alive := tm.toasts[:0]
	for _, t := range tm.toasts {
		switch t.Phase {
		case PhaseSlidingIn:
			t.offset, t.velocity = tm.spring.Update(t.offset, t.velocity, 0)
			if math.Abs(t.offset) < settle {
				t.offset, t.velocity = 0, 0
				t.Phase = PhaseVisible
			}
		case PhaseSlidingOut:
			target := t.hidden()
			t.offset, t.velocity = tm.spring.Update(t.offset, t.velocity, target)
			if target-t.offset < settle {
				t.Phase = PhaseDone
			}
		}
		if t.Phase == PhaseDone {
			continue
		}
		alive = append(alive, t)
	}
	tm.toasts = alive
}

func toastColor(typ ToastType) lipgloss.Color {
	switch typ {
	case ToastSuccess:
		return ui.Active.Foam
	case ToastError:
		return ui.Active.Love
	case ToastLoading:
		return ui.Active.Gold
	default:
		return ui.Active.Iris
	}
}

func toastStyle(typ ToastType, width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(toastColor(typ)).
		Foreground(ui.Active.Text).
		Padding(0, 1).
		Width(width)
}

func (tm *ToastManager) toastIcon(t *toast) string {
	style := lipgloss.NewStyle().Foreground(toastColor(t.Type))
	if t.Paused {
		return style.Render("⏸")
	}
	switch t.Type {
	case ToastSuccess:
		return style.Render("✓")
	case ToastError:
		return style.Render("✗")
	case ToastLoading:
		return style.Render(tm.spinner.View())
	default:
		return style.Render("▸")
	}
}

// renderToast wraps long messages within the toast width.
func (tm *ToastManager) renderToast(t *toast) string {
	content := tm.toastIcon(t) + " " + t.Message
	if t.Title != "" {
		title := lipgloss.NewStyle().Bold(true).Foreground(toastColor(t.Type)).Render(t.Title)
		content = title + "\n" + content
	}
	return toastStyle(t.Type, t.Width).Render(content)
}

// View renders all active toasts stacked vertically.
func (tm *ToastManager) View() string {
	var rendered []string
	for _, t := range tm.toasts {
		if t.Phase == PhaseDone {
			continue
		}
		rendered = append(rendered, tm.renderToast(t))
	}
	if len(rendered) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}

// GetPosition returns the x, y coordinates for placing the toast overlay.
func (tm *ToastManager) GetPosition() (int, int) {
	widest := MinToastWidth
	maxOffset := 0.0
	for _, t := range tm.toasts {
		if t.Phase == PhaseDone {
			continue
		}
		widest = max(widest, t.Width)
		maxOffset = max(maxOffset, t.offset)
	}
	x := max(tm.width-widest-4, 0)
	return x + int(math.Round(maxOffset)), 1
}
