package app

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/engine"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/ui"
	"github.com/kastheco/tareas/ui/overlay"
)

// Run is the main entrypoint into the terminal UI. It blocks until the user
// quits or ctx is cancelled. The caller owns svc and closes it afterwards.
func Run(ctx context.Context, svc *Services) error {
	out := termenv.NewOutput(os.Stdout)
	palette := ui.ApplyTheme(svc.Prefs.Theme(), out)
	// Paint the terminal default background with the theme base so unstyled
	// cells match the rest of the UI.
	restore := ui.SetTerminalBackground(palette.Base)
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go svc.Prober.Run(ctx)

	m := newHome(ctx, svc, out)
	m.setBackground = func(c lipgloss.Color) { ui.SetTerminalBackground(c) }
	defer m.bridge.close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

type state int

const (
	stateDefault state = iota
	// stateSearch is the state when the user is typing a search query.
	stateSearch
	// stateNew is the state when the new task form is open.
	stateNew
	// stateEdit is the state when the broker's edit prompt is displayed.
	stateEdit
	// stateConfirm is the state when the broker's confirmation is displayed.
	stateConfirm
	// stateHelp is the state when the help screen is displayed.
	stateHelp
)

type home struct {
	ctx     context.Context
	svc     *Services
	engine  *engine.Engine
	bridge  *bridge
	termOut *termenv.Output
	// setBackground repaints the terminal background after a theme change.
	setBackground func(lipgloss.Color)

	state state
	// offline is set while the connectivity monitor blocks the UI. The
	// offline overlay sits above every other state.
	offline bool
	// keySent is used to highlight menu options when the user presses a key.
	keySent bool
	// busy counts engine commands still running.
	busy int

	width, height int

	table        *ui.TaskTable
	statusBar    *ui.StatusBar
	menu         *ui.Menu
	history      *ui.HistoryPane
	spinner      spinner.Model
	toastManager *overlay.ToastManager
	toastTicking bool
	searchInput  textinput.Model

	// formOverlay is the new task form; creating is set while its request runs.
	formOverlay *overlay.FormOverlay
	creating    bool
	// textInputOverlay answers the visible broker edit prompt editReq.
	textInputOverlay *overlay.TextInputOverlay
	editReq          broker.EditRequest
	confirmOverlay   *overlay.ConfirmOverlay
	textOverlay      *overlay.TextOverlay
	offlineOverlay   *overlay.OfflineOverlay
}

func newHome(ctx context.Context, svc *Services, out *termenv.Output) *home {
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "buscar"
	search.CharLimit = 200

	m := &home{
		ctx:         ctx,
		svc:         svc,
		engine:      svc.Engine,
		bridge:      newBridge(),
		termOut:     out,
		table:       ui.NewTaskTable(),
		statusBar:   ui.NewStatusBar(),
		menu:        ui.NewMenu(),
		history:     ui.NewHistoryPane(),
		spinner:     s,
		searchInput: search,
	}
	m.toastManager = overlay.NewToastManager(&m.spinner)
	m.offlineOverlay = overlay.NewOfflineOverlay(&m.spinner)
	m.table.SetMode(svc.Prefs.ViewMode())
	m.table.SetTimeLayout(svc.Config.TimeLayout())

	m.bridge.attach(svc)
	if svc.Center != nil {
		if n := svc.Center.Rehydrate(); n > 0 {
			log.InfoLog.Printf("restored %d pending notifications", n)
		}
	}
	m.refreshView()
	m.showFirstRunHelp()
	return m
}

func (m *home) updateHandleWindowSizeEvent(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height
	m.toastManager.SetSize(msg.Width, msg.Height)
	m.layout()
}

// layout splits the height between the status bar, the table, the optional
// search line and history pane, and the menu.
func (m *home) layout() {
	const statusHeight, menuHeight = 1, 1
	historyHeight := 0
	if m.history.Visible() {
		historyHeight = max(4, min(12, m.height/3))
	}
	searchHeight := 0
	if m.state == stateSearch {
		searchHeight = 1
	}
	tableHeight := max(1, m.height-statusHeight-menuHeight-historyHeight-searchHeight)

	m.statusBar.SetSize(m.width)
	m.menu.SetSize(m.width, menuHeight)
	m.history.SetSize(m.width, historyHeight)
	m.table.SetSize(m.width, tableHeight)
	m.searchInput.Width = max(10, m.width-4)

	overlayWidth := int(float32(m.width) * 0.6)
	m.offlineOverlay.SetWidth(overlayWidth)
	if m.textInputOverlay != nil {
		m.textInputOverlay.SetWidth(overlayWidth)
	}
	if m.confirmOverlay != nil {
		m.confirmOverlay.SetWidth(overlayWidth)
	}
	if m.textOverlay != nil {
		m.textOverlay.SetWidth(overlayWidth)
	}
}

func (m *home) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.bridge.wait(),
		m.run("refresh", func(ctx context.Context) error { return m.engine.Refresh(ctx, false) }),
		m.startToastTick(),
	)
}

func (m *home) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overlay.ToastTickMsg:
		m.toastManager.Tick()
		if m.toastManager.Animating() {
			return m, m.toastTickCmd()
		}
		m.toastTicking = false
		return m, nil
	case bridgeMsg:
		cmds := []tea.Cmd{m.bridge.wait()}
		for _, inner := range msg.msgs {
			cmds = append(cmds, m.apply(inner))
		}
		return m, tea.Batch(cmds...)
	case cmdDoneMsg:
		return m, m.handleCmdDone(msg)
	case createDoneMsg:
		return m, m.handleCreateDone(msg)
	case exportDoneMsg:
		m.handleExportDone(msg)
		return m, m.startToastTick()
	case historyMsg:
		m.history.SetEvents(msg.events, msg.err)
		return m, nil
	case keyupMsg:
		m.menu.ClearKeydown()
		return m, nil
	case tea.WindowSizeMsg:
		m.updateHandleWindowSizeEvent(msg)
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply handles one message delivered by the bridge.
func (m *home) apply(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case engineChangedMsg:
		m.refreshView()
	case promptChangedMsg:
		m.syncPrompts()
	case connectivityMsg:
		m.syncOffline()
	case notifyMsg:
		m.toastManager.Apply(msg.event)
		return m.startToastTick()
	}
	return nil
}

// refreshView pulls the derived view from the engine into every component.
func (m *home) refreshView() {
	res := m.engine.View()
	st := m.engine.State()
	m.table.SetData(res, st, m.engine.Warm())
	m.statusBar.SetData(ui.StatusBarData{
		Total:    res.TotalCount,
		Pending:  res.PendingCount,
		Filtered: res.FilteredCount,
		Page:     res.Page,
		Pages:    res.TotalPages,
		PageSize: st.PageSize,
		Selected: st.SelectionCount(),
		Search:   st.SearchText,
		SortKey:  st.SortKey,
		Order:    st.SortOrder,
		Status:   m.svc.Monitor.Status(),
		Busy:     m.busy,
	})
	m.syncMenu()
}

func (m *home) syncMenu() {
	switch {
	case m.offline:
		m.menu.SetState(ui.StateOffline)
	case m.state != stateDefault:
		m.menu.SetState(ui.StatePrompt)
	case m.engine.State().SelectionCount() > 0:
		m.menu.SetState(ui.StateSelection)
	case len(m.engine.Tasks()) == 0:
		m.menu.SetState(ui.StateEmpty)
	default:
		m.menu.SetState(ui.StateDefault)
	}
}

// setState switches the input mode and refreshes everything that depends on it.
func (m *home) setState(s state) {
	m.state = s
	m.layout()
	m.syncMenu()
}

// syncPrompts mirrors the broker's visible prompts into overlays.
func (m *home) syncPrompts() {
	b := m.svc.Broker
	if b == nil {
		return
	}

	if req, ok := b.CurrentConfirm(); ok {
		_, waiting := b.ConfirmState()
		m.confirmOverlay = overlay.NewConfirmOverlay(req, waiting)
		m.confirmOverlay.SetWidth(int(float32(m.width) * 0.6))
		if m.state == stateDefault || m.state == stateSearch {
			m.setState(stateConfirm)
		}
	} else if m.confirmOverlay != nil {
		m.confirmOverlay = nil
		if m.state == stateConfirm {
			m.setState(stateDefault)
		}
	}

	if req, ok := b.CurrentEdit(); ok {
		if m.textInputOverlay == nil || m.editReq != req {
			m.editReq = req
			m.textInputOverlay = overlay.NewTextInputOverlay("Editar tarea", req.InitialText)
			m.textInputOverlay.SetPlaceholder("nueva descripción")
			m.textInputOverlay.SetWidth(int(float32(m.width) * 0.6))
		}
		if m.state == stateDefault || m.state == stateSearch {
			m.setState(stateEdit)
		}
	} else if m.textInputOverlay != nil {
		m.textInputOverlay = nil
		if m.state == stateEdit {
			m.setState(stateDefault)
		}
	}
}

// syncOffline shows or hides the blocking overlay from the monitor state.
func (m *home) syncOffline() {
	mon := m.svc.Monitor
	m.offline = mon.Blocked()
	m.offlineOverlay.SetRetrying(mon.Retrying())
	if cause := mon.Cause(); cause != nil {
		m.offlineOverlay.SetCause(cause.Error())
	} else {
		m.offlineOverlay.SetCause("")
	}
	m.refreshView()
}

func (m *home) handleQuit() (tea.Model, tea.Cmd) {
	if m.svc.Broker != nil {
		m.svc.Broker.CancelCurrent()
	}
	m.bridge.close()
	return m, tea.Quit
}

func (m *home) View() string {
	parts := []string{m.statusBar.String(), m.table.String()}
	if m.state == stateSearch {
		parts = append(parts, m.searchInput.View())
	}
	if m.history.Visible() {
		parts = append(parts, m.history.String())
	}
	parts = append(parts, m.menu.String())
	mainView := ui.FillLines(lipgloss.JoinVertical(lipgloss.Left, parts...), m.height)

	var modal string
	switch {
	case m.offline:
		modal = m.offlineOverlay.Render()
	case m.state == stateNew && m.formOverlay != nil:
		modal = m.formOverlay.Render()
	case m.state == stateEdit && m.textInputOverlay != nil:
		modal = m.textInputOverlay.Render()
	case m.state == stateConfirm && m.confirmOverlay != nil:
		modal = m.confirmOverlay.Render()
	case m.state == stateHelp && m.textOverlay != nil:
		modal = m.textOverlay.Render()
	}
	if modal != "" {
		mainView = overlay.PlaceOverlay(0, 0, modal, mainView, true)
	}

	if m.toastManager.HasActiveToasts() {
		x, y := m.toastManager.GetPosition()
		mainView = overlay.PlaceOverlay(x, y, m.toastManager.View(), mainView, false)
	}
	return mainView
}

// cmdDoneMsg reports the end of an engine command started with run.
type cmdDoneMsg struct {
	op  string
	err error
}

// createDoneMsg reports the outcome of the new task form's request.
type createDoneMsg struct{ err error }

// exportDoneMsg reports a finished export written to path.
type exportDoneMsg struct {
	toastID string
	path    string
	err     error
}

// historyMsg delivers the activity trail shown in the history pane.
type historyMsg struct {
	events []auditlog.Event
	err    error
}

type keyupMsg struct{}

// startToastTick starts the animation loop unless it is already running.
func (m *home) startToastTick() tea.Cmd {
	if m.toastTicking || !m.toastManager.Animating() {
		return nil
	}
	m.toastTicking = true
	return m.toastTickCmd()
}

func (m *home) toastTickCmd() tea.Cmd {
	return tea.Tick(time.Second/overlay.TickFPS, func(time.Time) tea.Msg {
		return overlay.ToastTickMsg{}
	})
}
