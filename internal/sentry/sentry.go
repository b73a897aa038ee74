package sentry

import (
	"context"
	"errors"
	"net/url"
	"os"
	"runtime"
	"strings"
	"time"

	gosentry "github.com/getsentry/sentry-go"
)

// dsnEnv names the environment variable holding the project DSN. Without it
// reporting stays off even when telemetry is enabled in the config.
const dsnEnv = "TAREAS_SENTRY_DSN"

// dsn is a package-level var so tests can override it.
var dsn = os.Getenv(dsnEnv)

var enabled bool

// Options configures crash reporting for one process.
type Options struct {
	Version   string
	Telemetry bool
	// APIURL is reported as a host tag only; credentials, path and query
	// never leave the machine.
	APIURL string
	// Server marks events sent by `tareas serve`.
	Server bool
}

// Init starts the SDK. With telemetry off or no DSN it does nothing and the
// rest of the package stays a no-op.
func Init(opts Options) error {
	if !opts.Telemetry || dsn == "" {
		enabled = false
		return nil
	}

	err := gosentry.Init(gosentry.ClientOptions{
		Dsn:              dsn,
		Release:          "tareas@" + opts.Version,
		AttachStacktrace: true,
		SampleRate:       1.0,
		BeforeSend:       dropCanceled,
	})
	if err != nil {
		return err
	}

	component := "tui"
	if opts.Server {
		component = "server"
	}
	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("os", runtime.GOOS)
		scope.SetTag("arch", runtime.GOARCH)
		scope.SetTag("go_version", runtime.Version())
		scope.SetTag("component", component)
		if host := apiHost(opts.APIURL); host != "" {
			scope.SetTag("api_host", host)
		}
	})

	enabled = true
	return nil
}

// IsEnabled reports whether events are being sent.
func IsEnabled() bool {
	return enabled
}

// Flush waits up to 2 seconds for buffered events to be sent.
func Flush() {
	if !enabled {
		return
	}
	gosentry.Flush(2 * time.Second)
}

// RecoverPanic captures a panic, flushes, then re-panics.
// Usage: defer sentry.RecoverPanic()
func RecoverPanic() {
	if !enabled {
		return
	}
	if err := recover(); err != nil {
		gosentry.CurrentHub().Recover(err)
		gosentry.Flush(2 * time.Second)
		panic(err)
	}
}

// Snapshot is the client state attached to every event.
type Snapshot struct {
	PageSize int
	Tasks    int
	Offline  bool
}

// SetSnapshot replaces the "tareas" context on the current scope.
func SetSnapshot(s Snapshot) {
	if !enabled {
		return
	}
	gosentry.ConfigureScope(func(scope *gosentry.Scope) {
		scope.SetTag("offline", boolStr(s.Offline))
		scope.SetContext("tareas", map[string]interface{}{
			"page_size": s.PageSize,
			"tasks":     s.Tasks,
			"offline":   s.Offline,
		})
	})
}

// CaptureError reports err under the operation that produced it, so failures
// of the same command group together. Nil errors are ignored.
func CaptureError(op string, err error) {
	if !enabled || err == nil {
		return
	}
	gosentry.WithScope(func(scope *gosentry.Scope) {
		scope.SetTag("op", op)
		gosentry.CaptureException(err)
	})
}

// dropCanceled discards events for work the user abandoned.
func dropCanceled(event *gosentry.Event, hint *gosentry.EventHint) *gosentry.Event {
	if hint != nil {
		if err, ok := hint.OriginalException.(error); ok && isCanceled(err) {
			return nil
		}
	}
	if strings.Contains(event.Message, "context canceled") {
		return nil
	}
	return event
}

func isCanceled(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled"))
}

// apiHost keeps only the host part of raw.
func apiHost(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Host
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
