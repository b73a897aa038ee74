package connectivity

import (
	"context"
	"time"

	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/log"
)

// DefaultProbeInterval is how often the prober checks the service.
const DefaultProbeInterval = 15 * time.Second

// Prober periodically pings the service and feeds offline/online signals
// into a Monitor, the way a browser reports network changes.
type Prober struct {
	ping     func(context.Context) error
	monitor  *Monitor
	interval time.Duration
	every    *log.Every
	// lastUp is the reachability seen by the previous probe.
	lastUp bool
}

// NewProber returns a Prober. interval <= 0 uses DefaultProbeInterval.
func NewProber(ping func(context.Context) error, m *Monitor, interval time.Duration) *Prober {
	if interval <= 0 {
		interval = DefaultProbeInterval
	}
	return &Prober{
		ping:     ping,
		monitor:  m,
		interval: interval,
		every:    log.NewEvery(time.Minute),
		lastUp:   true,
	}
}

// Check runs one probe. Only transitions are signalled: down reports Offline,
// back up reports Online, which triggers a retry when blocked.
func (p *Prober) Check(ctx context.Context) {
	err := p.ping(ctx)
	up := err == nil || !gateway.IsConnectivity(err)
	switch {
	case !up && p.lastUp:
		p.monitor.Offline()
	case !up:
		if p.every.ShouldLog() {
			log.InfoLog.Printf("connectivity: service still unreachable: %v", err)
		}
	case up && !p.lastUp:
		if err := p.monitor.Online(ctx); err != nil && err != ErrRetryInProgress {
			log.InfoLog.Printf("connectivity: online retry: %v", err)
		}
	}
	p.lastUp = up
}

// Run probes until ctx is done.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check(ctx)
		}
	}
}
