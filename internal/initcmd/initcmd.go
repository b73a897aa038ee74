package initcmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/internal/initcmd/wizard"
)

// checkTimeout bounds the reachability check after the wizard.
const checkTimeout = 5 * time.Second

// Options holds the CLI flags for tareas setup.
type Options struct {
	Clean bool // ignore existing config, start with factory defaults
}

// Run executes the tareas setup workflow.
func Run(opts Options) error {
	// Load existing config unless --clean
	var existing *config.TOMLConfig
	if !opts.Clean {
		var err error
		existing, err = config.LoadTOMLConfig()
		if err != nil {
			fmt.Printf("Warning: could not load existing config: %v\n", err)
		}
	}

	state, err := wizard.Run(existing)
	if err != nil {
		return fmt.Errorf("wizard: %w", err)
	}

	fmt.Println("\nChecking the API...")
	fmt.Printf("  %-40s ", state.APIURL)
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()
	if err := CheckAPI(ctx, state); err != nil {
		// Non-fatal: the server may simply not be running yet.
		fmt.Println(wizard.FailStyle.Render("UNREACHABLE: " + gateway.UserMessage(err)))
	} else {
		fmt.Println(wizard.OKStyle.Render("OK"))
	}

	fmt.Println("\nWriting config...")
	path, err := Write(state, existing)
	if err != nil {
		return err
	}
	fmt.Printf("  %s\n", wizard.PathStyle.Render(path))

	fmt.Println("\nDone! Run 'tareas' to start.")
	return nil
}

// CheckAPI pings the API the wizard was pointed at.
func CheckAPI(ctx context.Context, s *wizard.State) error {
	gw := gateway.NewHTTPGateway(s.APIURL, gateway.WithToken(s.Token), gateway.WithListTimeout(checkTimeout))
	return gw.Ping(ctx)
}

// Write saves the wizard answers to config.toml, merged over existing, and
// returns the path written.
func Write(s *wizard.State, existing *config.TOMLConfig) (string, error) {
	if err := config.SaveTOMLConfig(s.ToTOMLConfig(existing)); err != nil {
		return "", fmt.Errorf("save config: %w", err)
	}
	dir, err := config.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, config.TOMLConfigFileName), nil
}
