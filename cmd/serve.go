package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kastheco/tareas/internal/clock"
	"github.com/kastheco/tareas/internal/sentry"
	"github.com/kastheco/tareas/log"
	"github.com/kastheco/tareas/taskserver"
)

// ServeOptions configures the task API server.
type ServeOptions struct {
	Addr   string
	DSN    string
	Import string
	Secret string
	Prefix string
}

// startServer opens the store, imports a legacy tareas.json when asked and
// starts serving. The caller owns the returned server.
func startServer(ctx context.Context, opts ServeOptions, w io.Writer) (*taskserver.Server, error) {
	store, err := taskserver.OpenStore(opts.DSN)
	if err != nil {
		return nil, err
	}

	if opts.Import != "" {
		n, err := taskserver.ImportJSON(ctx, store, opts.Import)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("import: %w", err)
		}
		if n > 0 {
			fmt.Fprintf(w, "Imported %d tasks from %s\n", n, opts.Import)
		}
	}

	var handlerOpts []taskserver.HandlerOption
	if opts.Prefix != "" {
		handlerOpts = append(handlerOpts, taskserver.WithPrefix(opts.Prefix))
	}
	if opts.Secret != "" {
		handlerOpts = append(handlerOpts, taskserver.WithAuth(taskserver.NewAuthenticator([]byte(opts.Secret), clock.Real())))
	}

	srv, err := taskserver.Start(store, opts.Addr, handlerOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}
	return srv, nil
}

// executeServe runs the server until ctx is cancelled or it stops on its own.
func executeServe(ctx context.Context, opts ServeOptions, w io.Writer) error {
	srv, err := startServer(ctx, opts, w)
	if err != nil {
		return err
	}
	defer srv.Stop()

	fmt.Fprintf(w, "Serving tasks at %s\n", srv.APIURL())
	log.InfoLog.Printf("task server listening on %s", srv.APIURL())

	select {
	case <-ctx.Done():
		return nil
	case <-srv.Done():
		return errors.New("task server stopped unexpectedly")
	}
}

// NewServeCommand returns the serve command. Crash reporting follows the
// client's telemetry setting.
func NewServeCommand(load ConfigLoader, version string) *cobra.Command {
	var opts ServeOptions
	c := &cobra.Command{
		Use:   "serve",
		Short: "run the task API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Secret == "" {
				opts.Secret = os.Getenv("TAREAS_JWT_SECRET")
			}
			if err := sentry.Init(sentry.Options{
				Version:   version,
				Telemetry: load().IsTelemetryEnabled(),
				Server:    true,
			}); err != nil {
				log.WarningLog.Printf("sentry: %v", err)
			}
			defer sentry.Flush()
			defer sentry.RecoverPanic()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return executeServe(ctx, opts, cmd.OutOrStdout())
		},
	}
	c.Flags().StringVar(&opts.Addr, "addr", "127.0.0.1:8080", "address to listen on")
	c.Flags().StringVar(&opts.DSN, "db", "tareas.db", "SQLite file or postgres:// URL")
	c.Flags().StringVar(&opts.Import, "import", "", "import a tareas.json file before serving")
	c.Flags().StringVar(&opts.Secret, "jwt-secret", "", "require bearer tokens signed with this secret (or $TAREAS_JWT_SECRET)")
	c.Flags().StringVar(&opts.Prefix, "prefix", taskserver.DefaultPrefix, "path the API is mounted under")
	return c
}

// executeToken signs a bearer token for the server.
func executeToken(secret, subject string, ttl time.Duration, c clock.Clock) (string, error) {
	if secret == "" {
		return "", errors.New("a secret is required (--secret or $TAREAS_JWT_SECRET)")
	}
	return taskserver.NewAuthenticator([]byte(secret), c).IssueToken(subject, ttl)
}

// NewTokenCommand returns the token command.
func NewTokenCommand() *cobra.Command {
	var (
		secret  string
		subject string
		ttl     time.Duration
	)
	c := &cobra.Command{
		Use:   "token",
		Short: "issue a bearer token for a server started with --jwt-secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("TAREAS_JWT_SECRET")
			}
			tok, err := executeToken(secret, subject, ttl, clock.Real())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	c.Flags().StringVar(&secret, "secret", "", "signing secret")
	c.Flags().StringVar(&subject, "subject", "tareas", "token subject")
	c.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "token lifetime")
	return c
}
