package check

import (
	"context"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/gateway"
)

// Status represents the outcome of a single check.
type Status int

const (
	StatusOK   Status = iota // works as configured
	StatusWarn               // usable, but worth a look
	StatusFail               // broken
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Entry is one check's result.
type Entry struct {
	Name   string
	Status Status
	Detail string // e.g. path, task count, error message
}

// Section groups related entries under a heading.
type Section struct {
	Title   string
	Entries []Entry
}

// AuditResult is the complete output of tareas check.
type AuditResult struct {
	Config Section
	State  Section
	API    Section
}

// Sections returns the sections in display order.
func (r *AuditResult) Sections() []Section {
	return []Section{r.Config, r.State, r.API}
}

// Summary returns the number of entries that are not failing and the total.
func (r *AuditResult) Summary() (ok, total int) {
	for _, s := range r.Sections() {
		for _, e := range s.Entries {
			total++
			if e.Status != StatusFail {
				ok++
			}
		}
	}
	return ok, total
}

// Options selects what Audit inspects.
type Options struct {
	// ConfigDir holds config.json and config.toml.
	ConfigDir string
	Config    *config.Config
	// Gateway is dialled for the API checks. Nil builds one from Config.
	Gateway gateway.Gateway
}

// Audit runs the config, state and API checks.
func Audit(ctx context.Context, opts Options) *AuditResult {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	gw := opts.Gateway
	if gw == nil {
		gw = gateway.NewHTTPGateway(cfg.APIURL,
			gateway.WithListTimeout(cfg.ListTimeout()),
			gateway.WithToken(cfg.AuthToken),
		)
	}

	return &AuditResult{
		Config: auditConfig(opts.ConfigDir),
		State:  auditState(cfg),
		API:    auditAPI(ctx, cfg.APIURL, gw),
	}
}
