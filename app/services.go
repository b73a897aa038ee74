package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kastheco/tareas/broker"
	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/config/kvstore"
	"github.com/kastheco/tareas/connectivity"
	"github.com/kastheco/tareas/engine"
	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/view"
)

// Sources tag activity events with the surface that performed them.
const (
	SourceTUI = "tui"
	SourceCLI = "cli"
)

// Services holds the long-lived components behind the terminal UI and the
// CLI commands. Build it with OpenServices and release it with Close.
type Services struct {
	Config  *config.Config
	Store   kvstore.Store
	Prefs   *config.Prefs
	Audit   auditlog.Logger
	Gateway gateway.Gateway
	Monitor *connectivity.Monitor
	Prober  *connectivity.Prober
	// Center and Broker are nil for non-interactive services.
	Center *notify.Center
	Broker *broker.Broker
	Engine *engine.Engine

	mu       sync.Mutex
	onChange func()
	onPrompt func(broker.Queue)
	closers  []func()
}

type serviceOptions struct {
	interactive bool
	source      string
	store       kvstore.Store
	audit       auditlog.Logger
	gateway     gateway.Gateway
	clock       clock.Clock
	notifier    engine.Notifier
}

// ServiceOption configures OpenServices.
type ServiceOption func(*serviceOptions)

// Interactive adds the notification center and the prompt broker. Without
// it deletes run unconfirmed and messages go to the notifier set with
// WithNotifier, if any.
func Interactive() ServiceOption {
	return func(o *serviceOptions) { o.interactive = true }
}

// WithSource tags activity events. Defaults to SourceTUI for interactive
// services and SourceCLI otherwise.
func WithSource(source string) ServiceOption {
	return func(o *serviceOptions) { o.source = source }
}

// WithStore replaces the SQLite state store.
func WithStore(s kvstore.Store) ServiceOption {
	return func(o *serviceOptions) { o.store = s }
}

// WithAudit replaces the SQLite activity log.
func WithAudit(l auditlog.Logger) ServiceOption {
	return func(o *serviceOptions) { o.audit = l }
}

// WithGateway replaces the HTTP gateway built from the config.
func WithGateway(gw gateway.Gateway) ServiceOption {
	return func(o *serviceOptions) { o.gateway = gw }
}

// WithClock sets the clock driving toasts, prompts and the search debounce.
func WithClock(c clock.Clock) ServiceOption {
	return func(o *serviceOptions) { o.clock = c }
}

// WithNotifier routes engine messages to n on non-interactive services.
func WithNotifier(n engine.Notifier) ServiceOption {
	return func(o *serviceOptions) { o.notifier = n }
}

// OpenServices wires the state store, the activity log, the gateway and the
// engine from cfg.
func OpenServices(cfg *config.Config, opts ...ServiceOption) (*Services, error) {
	o := serviceOptions{clock: clock.Real()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.source == "" {
		o.source = SourceCLI
		if o.interactive {
			o.source = SourceTUI
		}
	}

	s := &Services{Config: cfg}
	if err := s.openState(&o); err != nil {
		s.Close()
		return nil, err
	}

	s.Gateway = o.gateway
	if s.Gateway == nil {
		s.Gateway = gateway.NewHTTPGateway(cfg.APIURL,
			gateway.WithListTimeout(cfg.ListTimeout()),
			gateway.WithMutationTimeout(cfg.MutationTimeout()),
			gateway.WithToken(cfg.AuthToken),
		)
	}
	s.Prefs = config.NewPrefs(s.Store, cfg.DefaultPageSize)
	s.Monitor = connectivity.NewMonitor()
	s.Prober = connectivity.NewProber(s.Gateway.Ping, s.Monitor, cfg.ProbeInterval())

	st := engineState(s.Prefs)
	engineOpts := []engine.Option{
		engine.WithMonitor(s.Monitor),
		engine.WithAuditLog(s.Audit),
		engine.WithPrefs(s.Prefs),
		engine.WithClock(o.clock),
		engine.WithState(st),
		engine.WithSource(o.source),
		engine.WithExportOptions(export.Options{TimeLayout: cfg.TimeLayout()}),
		engine.WithOnChange(s.changed),
	}

	if o.interactive {
		s.Center = notify.NewCenter(o.clock, s.Store, notify.WithThrottle(cfg.NotificationThrottle()))
		s.Broker = broker.New(broker.WithClock(o.clock), broker.WithOnChange(s.prompted))
		s.closers = append(s.closers, s.Broker.Close, s.Center.Close)
		engineOpts = append(engineOpts, engine.WithNotifier(s.Center), engine.WithBroker(s.Broker))
	} else if o.notifier != nil {
		engineOpts = append(engineOpts, engine.WithNotifier(o.notifier))
	}

	s.Engine = engine.New(s.Gateway, engineOpts...)
	s.closers = append(s.closers, s.Engine.Close)
	return s, nil
}

func (s *Services) openState(o *serviceOptions) error {
	needPath := o.store == nil || o.audit == nil
	var path string
	if needPath {
		p, err := s.Config.StatePath()
		if err != nil {
			return fmt.Errorf("resolve state path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
		path = p
	}

	s.Store = o.store
	if s.Store == nil {
		store, err := kvstore.NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}
		s.Store = store
		s.closers = append(s.closers, func() {
			if err := store.Close(); err != nil {
				log.WarningLog.Printf("close state store: %v", err)
			}
		})
	}

	s.Audit = o.audit
	if s.Audit == nil {
		logger, err := auditlog.NewSQLiteLogger(path)
		if err != nil {
			// The activity trail is optional; the app runs without it.
			log.WarningLog.Printf("open activity log: %v", err)
			s.Audit = auditlog.NopLogger()
			return nil
		}
		s.Audit = logger
		s.closers = append(s.closers, func() {
			if err := logger.Close(); err != nil {
				log.WarningLog.Printf("close activity log: %v", err)
			}
		})
	}
	return nil
}

// engineState restores the persisted page size into the default view state.
func engineState(p *config.Prefs) view.State {
	st := view.DefaultState()
	st.PageSize = p.PageSize()
	return st
}

// OnChange sets the function called after the engine cache or view changed.
func (s *Services) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// OnPrompt sets the function called when a broker queue changed.
func (s *Services) OnPrompt(fn func(broker.Queue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPrompt = fn
}

func (s *Services) changed() {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (s *Services) prompted(q broker.Queue) {
	s.mu.Lock()
	fn := s.onPrompt
	s.mu.Unlock()
	if fn != nil {
		fn(q)
	}
}

// Close releases everything in reverse order of creation.
func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
