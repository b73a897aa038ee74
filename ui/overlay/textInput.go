package overlay

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kastheco/tareas/ui"
)

// TextInputOverlay edits a single task description.
type TextInputOverlay struct {
	textarea   textarea.Model
	Title      string
	FocusIndex int // 0 for text input, 1 for enter button
	Submitted  bool
	Canceled   bool
	errMsg     string
	width      int
}

// NewTextInputOverlay creates a new text input overlay with the given title and initial value.
func NewTextInputOverlay(title string, initialValue string) *TextInputOverlay {
	ti := textarea.New()
	ti.SetValue(initialValue)
	ti.Focus()
	ti.ShowLineNumbers = false
	ti.Prompt = ""
	ti.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ti.CharLimit = 0
	ti.SetHeight(2)

	return &TextInputOverlay{
		textarea: ti,
		Title:    title,
		width:    50,
	}
}

// SetPlaceholder sets the textarea placeholder text.
func (t *TextInputOverlay) SetPlaceholder(text string) {
	t.textarea.Placeholder = text
}

func (t *TextInputOverlay) SetWidth(width int) {
	t.width = clampInt(width, 40, 80)
}

// Reject reopens a submitted overlay and shows msg under the input.
func (t *TextInputOverlay) Reject(msg string) {
	t.Submitted = false
	t.errMsg = msg
	t.FocusIndex = 0
	t.textarea.Focus()
}

// Error returns the message set by Reject.
func (t *TextInputOverlay) Error() string { return t.errMsg }

// HandleKeyPress processes a key press and updates the state accordingly.
// Returns true if the overlay should be closed.
func (t *TextInputOverlay) HandleKeyPress(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab:
		t.FocusIndex = (t.FocusIndex + 1) % 2
		if t.FocusIndex == 0 {
			t.textarea.Focus()
		} else {
			t.textarea.Blur()
		}
		return false
	case tea.KeyEsc:
		t.Canceled = true
		return true
	case tea.KeyEnter:
		t.Submitted = true
		return true
	default:
		if t.FocusIndex == 0 {
			t.errMsg = ""
			t.textarea, _ = t.textarea.Update(msg)
		}
		return false
	}
}

// GetValue returns the current value of the text input.
func (t *TextInputOverlay) GetValue() string {
	return t.textarea.Value()
}

// IsSubmitted returns whether the form was submitted.
func (t *TextInputOverlay) IsSubmitted() bool {
	return t.Submitted
}

// Render renders the text input overlay.
func (t *TextInputOverlay) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(ui.Active.Iris).
		Padding(1, 2)

	titleStyle := lipgloss.NewStyle().
		Foreground(ui.Active.Iris).
		Bold(true).
		MarginBottom(1)

	buttonStyle := lipgloss.NewStyle().
		Foreground(ui.Active.Subtle)

	focusedButtonStyle := buttonStyle.
		Background(ui.Active.Iris).
		Foreground(ui.Active.Base)

	t.textarea.SetWidth(t.width - 6)

	content := titleStyle.Render(t.Title) + "\n"
	content += t.textarea.View() + "\n"
	if t.errMsg != "" {
		content += lipgloss.NewStyle().Foreground(ui.Active.Love).Render(wordwrap.String(t.errMsg, t.width-6)) + "\n"
	}
	content += "\n"

	enterButton := " Enter "
	if t.FocusIndex == 1 {
		enterButton = focusedButtonStyle.Render(enterButton)
	} else {
		enterButton = buttonStyle.Render(enterButton)
	}
	content += enterButton + "  " + lipgloss.NewStyle().Foreground(ui.Active.Muted).Render("esc cancel")

	return style.Render(content)
}
