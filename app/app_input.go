package app

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/keys"
	"github.com/kastheco/tareas/ui/overlay"
	"github.com/kastheco/tareas/view"
)

func (m *home) handleMenuHighlighting(msg tea.KeyMsg) (cmd tea.Cmd, returnEarly bool) {
	// Handle menu highlighting when you press a button. We intercept it here and immediately return to
	// update the ui while re-sending the keypress. Then, on the next call to this, we actually handle the keypress.
	if m.keySent {
		m.keySent = false
		return nil, false
	}
	if m.state != stateDefault || m.offline {
		return nil, false
	}
	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok {
		return nil, false
	}
	// Movement keys repeat quickly; highlighting them only adds latency.
	if name == keys.KeyUp || name == keys.KeyDown || name == keys.KeyQuit {
		return nil, false
	}
	m.keySent = true
	return tea.Batch(
		func() tea.Msg { return msg },
		m.keydownCallback(name)), true
}

func (m *home) handleKeyPress(msg tea.KeyMsg) (mod tea.Model, cmd tea.Cmd) {
	cmd, returnEarly := m.handleMenuHighlighting(msg)
	if returnEarly {
		return m, cmd
	}

	if m.offline {
		return m.handleOfflineState(msg)
	}

	switch m.state {
	case stateSearch:
		return m.handleSearchState(msg)
	case stateNew:
		return m.handleNewState(msg)
	case stateEdit:
		return m.handleEditState(msg)
	case stateConfirm:
		return m.handleConfirmState(msg)
	case stateHelp:
		return m.handleHelpState(msg)
	}
	return m.handleDefaultState(msg)
}

// handleOfflineState only allows retrying and quitting while blocked.
func (m *home) handleOfflineState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m.handleQuit()
	case "r":
		if m.offlineOverlay.Retrying() {
			return m, nil
		}
		m.offlineOverlay.SetRetrying(true)
		return m, m.run("retry", m.svc.Monitor.Retry)
	}
	return m, nil
}

func (m *home) handleSearchState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchInput.Reset()
		m.searchInput.Blur()
		m.engine.SetSearchNow("")
		m.setState(stateDefault)
		return m, nil
	case tea.KeyEnter:
		m.searchInput.Blur()
		m.engine.SetSearchNow(m.searchInput.Value())
		m.setState(stateDefault)
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.engine.SetSearch(m.searchInput.Value())
	return m, cmd
}

func (m *home) handleNewState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.formOverlay == nil || m.creating {
		if msg.Type == tea.KeyCtrlC {
			return m.handleQuit()
		}
		return m, nil
	}
	if !m.formOverlay.HandleKeyPress(msg) {
		return m, nil
	}
	if m.formOverlay.IsCanceled() {
		m.formOverlay = nil
		m.setState(stateDefault)
		return m, nil
	}
	if m.formOverlay.IsSubmitted() {
		return m, m.createTask(m.formOverlay.Description(), m.formOverlay.Priority())
	}
	return m, nil
}

func (m *home) handleEditState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.textInputOverlay == nil {
		m.setState(stateDefault)
		return m, nil
	}
	if !m.textInputOverlay.HandleKeyPress(msg) {
		return m, nil
	}
	if m.textInputOverlay.Canceled {
		m.textInputOverlay = nil
		m.setState(stateDefault)
		m.svc.Broker.CancelEdit(m.editReq.Seq)
		return m, nil
	}
	if m.textInputOverlay.IsSubmitted() {
		err := m.svc.Broker.SubmitEdit(m.editReq.Seq, m.textInputOverlay.GetValue())
		if errors.Is(err, broker.ErrStalePrompt) || errors.Is(err, broker.ErrNoPrompt) {
			m.textInputOverlay = nil
			m.setState(stateDefault)
			m.syncPrompts()
			return m, nil
		}
		if err != nil {
			m.textInputOverlay.Reject(promptMessage(err))
			return m, nil
		}
		m.textInputOverlay = nil
		m.setState(stateDefault)
	}
	return m, nil
}

func (m *home) handleConfirmState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmOverlay == nil {
		m.setState(stateDefault)
		return m, nil
	}
	seq := m.confirmOverlay.Request().Seq
	if msg.Type == tea.KeyCtrlC {
		m.svc.Broker.CancelConfirm(seq)
		return m.handleQuit()
	}
	if m.svc.Broker.HandleConfirmKey(seq, msg.String()) {
		m.confirmOverlay = nil
		m.setState(stateDefault)
		// Another queued confirmation may already be visible.
		m.syncPrompts()
	} else if cur, ok := m.svc.Broker.CurrentConfirm(); !ok || cur.Seq != seq {
		// The drawn prompt timed out; show what replaced it instead of answering it.
		m.syncPrompts()
	}
	return m, nil
}

func (m *home) handleDefaultState(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.history.Visible() {
		switch msg.String() {
		case "pgdown", "ctrl+d":
			m.history.ScrollDown(3)
			return m, nil
		case "pgup", "ctrl+u":
			m.history.ScrollUp(3)
			return m, nil
		}
	}

	name, ok := keys.GlobalKeyStringsMap[msg.String()]
	if !ok {
		return m, nil
	}

	switch name {
	case keys.KeyQuit:
		return m.handleQuit()
	case keys.KeyUp:
		m.table.Up()
	case keys.KeyDown:
		m.table.Down()
	case keys.KeyPrevPage:
		m.engine.PrevPage()
		m.table.Home()
	case keys.KeyNextPage:
		m.engine.NextPage()
		m.table.Home()
	case keys.KeyFirst:
		m.engine.SetPage(1)
		m.table.Home()
	case keys.KeySearch:
		m.searchInput.SetValue(m.engine.State().SearchText)
		m.searchInput.CursorEnd()
		m.setState(stateSearch)
		return m, m.searchInput.Focus()
	case keys.KeySort:
		m.engine.ToggleSort(nextSortKey(m.engine.State().SortKey))
	case keys.KeySortOrder:
		m.engine.ToggleSort(m.engine.State().SortKey)
	case keys.KeyPageSize:
		m.engine.SetPageSize(view.NextPageSize(m.engine.State().PageSize))
		m.table.Home()
	case keys.KeySelect:
		if t, ok := m.table.CursorTask(); ok {
			m.engine.ToggleSelect(t.ID)
		}
	case keys.KeySelectPage:
		m.engine.SelectPage()
	case keys.KeyClearSelect:
		m.engine.ClearSelection()
	case keys.KeyRefresh:
		return m, m.run("refresh", func(ctx context.Context) error { return m.engine.Refresh(ctx, true) })
	case keys.KeyHelp:
		m.showHelpScreen()
	case keys.KeyHistory:
		return m, m.toggleHistory()
	case keys.KeyTheme:
		return m, m.cycleTheme()
	case keys.KeyViewMode:
		m.toggleViewMode()
	case keys.KeyCopy:
		return m, m.copyDescription()
	default:
		return m, m.handleTaskAction(name)
	}
	return m, nil
}

// keydownCallback clears the menu option highlighting after 500ms.
func (m *home) keydownCallback(name keys.KeyName) tea.Cmd {
	m.menu.Keydown(name)
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
		case <-time.After(500 * time.Millisecond):
		}

		return keyupMsg{}
	}
}

// openNewTaskForm shows the create form.
func (m *home) openNewTaskForm() {
	m.formOverlay = overlay.NewFormOverlay("Nueva tarea", max(40, int(float32(m.width)*0.6)), "")
	m.creating = false
	m.setState(stateNew)
}

func nextSortKey(cur view.SortKey) view.SortKey {
	for i, k := range view.SortKeys {
		if k == cur {
			return view.SortKeys[(i+1)%len(view.SortKeys)]
		}
	}
	return view.SortKeys[0]
}
