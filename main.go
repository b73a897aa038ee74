package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/kastheco/tareas/app"
	cmd2 "github.com/kastheco/tareas/cmd"
	"github.com/kastheco/tareas/config"
	initcmd "github.com/kastheco/tareas/internal/initcmd"
	sentrypkg "github.com/kastheco/tareas/internal/sentry"
	"github.com/kastheco/tareas/log"
)

var (
	version = "0.1.0"
	apiFlag string
	rootCmd = &cobra.Command{
		Use:           "tareas",
		Short:         "tareas - a terminal client for the tareas task API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Initialize(cmd.Name() == "serve")
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if err := sentrypkg.Init(sentrypkg.Options{
				Version:   version,
				Telemetry: cfg.IsTelemetryEnabled(),
				APIURL:    cfg.APIURL,
			}); err != nil {
				log.WarningLog.Printf("sentry: %v", err)
			}
			defer sentrypkg.Flush()
			defer sentrypkg.RecoverPanic()

			svc, err := app.OpenServices(cfg, app.Interactive())
			if err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer svc.Close()

			sentrypkg.SetSnapshot(sentrypkg.Snapshot{PageSize: svc.Prefs.PageSize()})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
			defer stop()
			return app.Run(ctx, svc)
		},
	}

	debugCmd = &cobra.Command{
		Use:   "debug",
		Short: "Print debug information like config paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()

			configDir, err := config.GetConfigDir()
			if err != nil {
				return fmt.Errorf("failed to get config directory: %w", err)
			}
			statePath, err := cfg.StatePath()
			if err != nil {
				return fmt.Errorf("failed to resolve state path: %w", err)
			}
			configJson, _ := json.MarshalIndent(cfg, "", "  ")

			out := termenv.NewOutput(os.Stdout)
			fmt.Printf("Config: %s\n%s\n", filepath.Join(configDir, config.ConfigFileName), configJson)
			fmt.Printf("State: %s\n", statePath)
			fmt.Printf("Terminal: profile=%s dark=%t\n", profileName(out.Profile), out.HasDarkBackground())

			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of tareas",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tareas version %s\n", version)
			fmt.Printf("https://github.com/kastheco/tareas/releases/tag/v%s\n", version)
		},
	}
)

// loadConfig reads the config file and applies the --api override.
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	if apiFlag != "" {
		cfg.APIURL = apiFlag
	}
	return cfg
}

func profileName(p termenv.Profile) string {
	switch p {
	case termenv.TrueColor:
		return "truecolor"
	case termenv.ANSI256:
		return "ansi256"
	case termenv.ANSI:
		return "ansi"
	}
	return "ascii"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiFlag, "api", "", "task API root (overrides api_url in the config)")

	var cleanFlag bool
	setupCmd := &cobra.Command{
		Use:     "setup",
		Aliases: []string{"init"},
		Short:   "Configure the API URL, token and defaults",
		Long: `Run an interactive wizard to:
  1. Point the client at a task API and set its bearer token
  2. Pick the default page size and request timeouts
  3. Check that the API answers
  4. Write ~/.config/tareas/config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return initcmd.Run(initcmd.Options{Clean: cleanFlag})
		},
	}
	setupCmd.Flags().BoolVar(&cleanFlag, "clean", false, "Ignore existing config, start with factory defaults")

	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(cmd2.NewTaskCommands(loadConfig)...)
	rootCmd.AddCommand(cmd2.NewServeCommand(loadConfig, version))
	rootCmd.AddCommand(cmd2.NewTokenCommand())
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errUnhealthy) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
