package app

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/connectivity"
	"github.com/kastheco/tareas/notify"
)

// Messages produced by the background components. They reach Update through
// the bridge, never by calling into the model directly.
type (
	// engineChangedMsg means the cache or the view state changed.
	engineChangedMsg struct{}
	// promptChangedMsg means a broker queue changed.
	promptChangedMsg struct{ queue broker.Queue }
	// notifyMsg carries one notification lifecycle event.
	notifyMsg struct{ event notify.Event }
	// connectivityMsg carries a connectivity status change.
	connectivityMsg struct{ status connectivity.Status }
)

// bridgeMsg delivers everything queued since the previous delivery.
type bridgeMsg struct{ msgs []tea.Msg }

// bridge queues messages from goroutines the program does not own. push
// never blocks, so callbacks fired while Update runs cannot deadlock the
// event loop. Consecutive change notifications are coalesced.
type bridge struct {
	mu      sync.Mutex
	pending []tea.Msg
	wake    chan struct{}
	done    chan struct{}
	closed  sync.Once
}

func newBridge() *bridge {
	return &bridge{wake: make(chan struct{}, 1), done: make(chan struct{})}
}

func (b *bridge) push(msg tea.Msg) {
	b.mu.Lock()
	if _, ok := msg.(engineChangedMsg); ok && len(b.pending) > 0 {
		if _, last := b.pending[len(b.pending)-1].(engineChangedMsg); last {
			b.mu.Unlock()
			return
		}
	}
	b.pending = append(b.pending, msg)
	b.mu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

func (b *bridge) drain() []tea.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	msgs := b.pending
	b.pending = nil
	return msgs
}

// wait returns a command that blocks until something is queued. Update
// re-issues it after every bridgeMsg.
func (b *bridge) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case <-b.done:
				return nil
			case <-b.wake:
				if msgs := b.drain(); len(msgs) > 0 {
					return bridgeMsg{msgs: msgs}
				}
			}
		}
	}
}

func (b *bridge) close() {
	b.closed.Do(func() { close(b.done) })
}

// attach subscribes the bridge to every component in s.
func (b *bridge) attach(s *Services) {
	s.OnChange(func() { b.push(engineChangedMsg{}) })
	s.OnPrompt(func(q broker.Queue) { b.push(promptChangedMsg{queue: q}) })
	s.Monitor.Subscribe(func(st connectivity.Status) { b.push(connectivityMsg{status: st}) })
	if s.Center != nil {
		s.Center.Subscribe(func(ev notify.Event) { b.push(notifyMsg{event: ev}) })
	}
}
