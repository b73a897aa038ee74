package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kastheco/tareas/app"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/internal/importer"
)

// executeImport reads path and creates its tasks through api.
func executeImport(ctx context.Context, api importer.API, audit auditlog.Logger, path string, w io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	items, err := importer.Parse(data, path)
	if err != nil {
		return err
	}

	res, err := importer.NewImporter(api).Run(ctx, items)
	if res.Created > 0 {
		audit.Emit(auditlog.NewEvent(auditlog.EventImported, path,
			auditlog.WithCount(res.Created), auditlog.WithSource(app.SourceCLI)))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Imported %d, skipped %d", res.Created, res.Skipped)
	if len(res.Failed) > 0 {
		fmt.Fprintf(w, ", failed %d", len(res.Failed))
	}
	fmt.Fprintln(w)
	for _, f := range res.Failed {
		fmt.Fprintf(w, "  ✗ %s: %s\n", f.Description, gateway.UserMessage(f.Err))
	}
	if len(res.Failed) > 0 {
		return fmt.Errorf("%d tasks could not be imported", len(res.Failed))
	}
	return nil
}

func newImportCommand(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "create tasks from a csv or json file",
		Long: `Creates a task for every row of a tareas CSV or JSON export, or of a
JSON array of task objects with name/title/description keys. Descriptions
that already exist are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd, load)
			if err != nil {
				return err
			}
			defer svc.Close()
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return executeImport(ctx, svc.Gateway, svc.Audit, args[0], cmd.OutOrStdout())
		},
	}
}
