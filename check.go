package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/internal/check"
)

// errUnhealthy is returned when a check fails to signal exit code 1 without printing a message.
var errUnhealthy = errors.New("unhealthy")

const checkTimeout = 10 * time.Second

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Audit the configuration, local state and API connection",
		Long: `Audits the three things tareas depends on and reports each:

  1. Config  (config.json and config.toml parse)
  2. State   (preferences and activity log in state.db)
  3. API     (reachable, token accepted, task count)

Exit code 0 if nothing fails, exit code 1 otherwise. Warnings do not fail.`,
		RunE: runCheck,
		// Health failures are not usage errors.
		SilenceUsage: true,
		// Suppress cobra's "Error: ..." line for the unhealthy sentinel.
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("verbose", "v", false, "show details for passing checks too")
	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	dir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("get config dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	result := check.Audit(ctx, check.Options{ConfigDir: dir, Config: loadConfig()})

	out := cmd.OutOrStdout()
	for _, s := range result.Sections() {
		renderSection(out, s, verbose)
	}

	ok, total := result.Summary()
	pct := 0
	if total > 0 {
		pct = ok * 100 / total
	}

	fmt.Fprintf(out, "\nHealth: %d/%d OK (%d%%)\n", ok, total, pct)

	if ok < total {
		return errUnhealthy
	}
	return nil
}

func renderSection(out io.Writer, s check.Section, verbose bool) {
	fmt.Fprintf(out, "\n%s:\n", s.Title)
	for _, e := range s.Entries {
		detail := ""
		if e.Detail != "" && (verbose || e.Status != check.StatusOK) {
			detail = "  " + e.Detail
		}
		fmt.Fprintf(out, "  %s %-14s%s\n", statusGlyph(e.Status), e.Name, detail)
	}
}

func statusGlyph(s check.Status) string {
	switch s {
	case check.StatusOK:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#9ccfd8")).Render("✓")
	case check.StatusWarn:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#f6c177")).Render("!")
	case check.StatusFail:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92")).Render("✗")
	default:
		return "?"
	}
}

func init() {
	rootCmd.AddCommand(newCheckCmd())
}
