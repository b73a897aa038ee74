package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/kastheco/tareas/app"
	"github.com/kastheco/tareas/config"
	"github.com/kastheco/tareas/config/auditlog"
	"github.com/kastheco/tareas/engine"
	"github.com/kastheco/tareas/export"
	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/notify"
	"github.com/kastheco/tareas/task"
	"github.com/kastheco/tareas/view"
)

// ConfigLoader returns the configuration a command runs with.
type ConfigLoader func() *config.Config

// printNotifier writes engine messages to a terminal stream.
type printNotifier struct{ w io.Writer }

func (p printNotifier) Post(msg string, kind notify.Kind, _ time.Duration, _ ...notify.Option) string {
	var prefix string
	switch kind {
	case notify.KindSuccess:
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ccfd8")).Render("✓")
	case notify.KindError:
		prefix = lipgloss.NewStyle().Foreground(lipgloss.Color("#eb6f92")).Render("✗")
	default:
		prefix = "·"
	}
	fmt.Fprintln(p.w, prefix+" "+msg)
	return ""
}

// openServices opens non-interactive services whose messages go to stderr.
func openServices(cmd *cobra.Command, load ConfigLoader) (*app.Services, error) {
	return app.OpenServices(load(), app.WithNotifier(printNotifier{w: cmd.ErrOrStderr()}))
}

// withTasks opens services, warms the cache and runs fn.
func withTasks(cmd *cobra.Command, load ConfigLoader, fn func(ctx context.Context, svc *app.Services) error) error {
	svc, err := openServices(cmd, load)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := svc.Engine.Refresh(ctx, false); err != nil {
		return err
	}
	return fn(ctx, svc)
}

// ListOptions selects and formats the tasks printed by list.
type ListOptions struct {
	Format  string
	Search  string
	Sort    string
	Order   string
	Pending bool
	// Pretty renders Markdown for a terminal.
	Pretty bool
	Width  int
	Now    time.Time
}

// executeList prints the tasks matching opts. Exported for testing without
// cobra plumbing through ExecuteList.
func executeList(e *engine.Engine, opts ListOptions, w io.Writer) error {
	if opts.Sort != "" {
		order := view.Desc
		if strings.EqualFold(opts.Order, string(view.Asc)) {
			order = view.Asc
		}
		key, err := parseSortKey(opts.Sort)
		if err != nil {
			return err
		}
		e.SetSort(key, order)
	}
	e.SetSearchNow(opts.Search)

	tasks := e.Filtered()
	if opts.Pending {
		pending := tasks[:0:0]
		for _, t := range tasks {
			if t.Pending() {
				pending = append(pending, t)
			}
		}
		tasks = pending
	}

	switch strings.ToLower(opts.Format) {
	case "", "table":
		writeTable(w, tasks, opts.Now)
		return nil
	}
	f, err := export.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if f == export.FormatMarkdown && opts.Pretty {
		return writeMarkdown(w, tasks, opts.Width)
	}
	b, err := export.Render(f, tasks, export.Options{})
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ExecuteList is executeList for callers outside the package.
func ExecuteList(e *engine.Engine, opts ListOptions, w io.Writer) error {
	return executeList(e, opts, w)
}

func parseSortKey(s string) (view.SortKey, error) {
	for _, k := range view.SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	names := make([]string, len(view.SortKeys))
	for i, k := range view.SortKeys {
		names[i] = string(k)
	}
	return "", fmt.Errorf("unknown sort key %q (want %s)", s, strings.Join(names, ", "))
}

func writeTable(w io.Writer, tasks []task.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No hay tareas.")
		return
	}
	if now.IsZero() {
		now = time.Now()
	}
	descW := len("descripcion")
	for _, t := range tasks {
		descW = max(descW, runewidth.StringWidth(t.Description))
	}
	descW = min(descW, 60)

	header := fmt.Sprintf("%5s  %s  %s  %-9s  %s", "id", " ", runewidth.FillRight("descripcion", descW), "prioridad", "creada")
	fmt.Fprintln(w, strings.TrimRight(header, " "))
	for _, t := range tasks {
		mark := "○"
		if t.Completed {
			mark = "✓"
		}
		desc := runewidth.FillRight(runewidth.Truncate(t.Description, descW, "…"), descW)
		created := humanize.RelTime(t.CreatedTime(), now, "ago", "from now")
		fmt.Fprintf(w, "%5d  %s  %s  %-9s  %s\n", t.ID, mark, desc, t.Priority, created)
	}
}

func writeMarkdown(w io.Writer, tasks []task.Task, width int) error {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(export.Markdown(tasks, export.Options{}))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// isTerminal reports whether w is an interactive terminal, and its width.
func isTerminal(w io.Writer) (bool, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false, 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return true, 80
	}
	return true, width
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// confirmDelete asks on the terminal before deleting. Non-interactive
// sessions must pass --yes.
func confirmDelete(cmd *cobra.Command, n int) (bool, error) {
	tty, _ := isTerminal(cmd.OutOrStdout())
	if !tty {
		return false, errors.New("refusing to delete without --yes outside a terminal")
	}
	ok := false
	title := "¿Eliminar 1 tarea?"
	if n != 1 {
		title = fmt.Sprintf("¿Eliminar %d tareas?", n)
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(title).
			Description("Esta acción no se puede deshacer.").
			Affirmative("Eliminar").
			Negative("Cancelar").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// NewTaskCommands returns the list, add, done, rename, priority, rm, export,
// import and history commands.
func NewTaskCommands(load ConfigLoader) []*cobra.Command {
	var listOpts ListOptions
	listCmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "list tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, load, func(_ context.Context, svc *app.Services) error {
				opts := listOpts
				opts.Pretty, opts.Width = isTerminal(cmd.OutOrStdout())
				return executeList(svc.Engine, opts, cmd.OutOrStdout())
			})
		},
	}
	listCmd.Flags().StringVarP(&listOpts.Format, "format", "f", "table", "output format: table, csv, json or md")
	listCmd.Flags().StringVarP(&listOpts.Search, "search", "s", "", "only tasks whose description contains this text")
	listCmd.Flags().StringVar(&listOpts.Sort, "sort", "", "sort key: fecha, prioridad, descripcion, completada or id")
	listCmd.Flags().StringVar(&listOpts.Order, "order", "desc", "sort order: asc or desc")
	listCmd.Flags().BoolVar(&listOpts.Pending, "pending", false, "only pending tasks")

	var priorityFlag string
	addCmd := &cobra.Command{
		Use:   "add <descripcion>",
		Short: "create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := task.ParsePriority(priorityFlag)
			if !ok {
				return fmt.Errorf("invalid priority %q (want Alta, Media or Baja)", priorityFlag)
			}
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				return svc.Engine.CreateTask(ctx, strings.Join(args, " "), p)
			})
		},
	}
	addCmd.Flags().StringVarP(&priorityFlag, "priority", "p", string(task.DefaultPriority), "Alta, Media or Baja")

	var undoFlag bool
	doneCmd := &cobra.Command{
		Use:   "done <id>...",
		Short: "mark tasks completed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				if len(ids) == 1 {
					return svc.Engine.SetCompleted(ctx, ids[0], !undoFlag)
				}
				for _, id := range ids {
					svc.Engine.ToggleSelect(id)
				}
				return svc.Engine.CompleteSelected(ctx, !undoFlag)
			})
		},
	}
	doneCmd.Flags().BoolVar(&undoFlag, "undo", false, "mark the tasks pending instead")

	renameCmd := &cobra.Command{
		Use:   "rename <id> <descripcion>",
		Short: "change a task description",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				return svc.Engine.RenameTask(ctx, id, strings.Join(args[1:], " "))
			})
		},
	}

	priorityCmd := &cobra.Command{
		Use:   "priority <Alta|Media|Baja> <id>...",
		Short: "set the priority of tasks",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := task.ParsePriority(args[0])
			if !ok {
				return fmt.Errorf("invalid priority %q (want Alta, Media or Baja)", args[0])
			}
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				if len(ids) == 1 {
					return svc.Engine.SetPriority(ctx, ids[0], p)
				}
				for _, id := range ids {
					svc.Engine.ToggleSelect(id)
				}
				return svc.Engine.PrioritizeSelected(ctx, p)
			})
		},
	}

	var yesFlag bool
	rmCmd := &cobra.Command{
		Use:     "rm <id>...",
		Aliases: []string{"delete"},
		Short:   "delete tasks",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			if !yesFlag {
				ok, err := confirmDelete(cmd, len(ids))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.ErrOrStderr(), "Cancelado.")
					return nil
				}
			}
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				if len(ids) == 1 {
					return svc.Engine.DeleteTask(ctx, ids[0])
				}
				for _, id := range ids {
					svc.Engine.ToggleSelect(id)
				}
				return svc.Engine.DeleteSelected(ctx)
			})
		},
	}
	rmCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "do not ask for confirmation")

	return []*cobra.Command{
		listCmd, addCmd, doneCmd, renameCmd, priorityCmd, rmCmd,
		newExportCommand(load), newImportCommand(load), newHistoryCommand(load),
	}
}

// ExportOptions selects what export writes.
type ExportOptions struct {
	Format string
	Server bool
	Search string
	Output string
	Now    time.Time
}

// executeExport renders the export and writes it to opts.Output, a
// timestamped file when Output is empty, or w when Output is "-". It
// returns the path written.
func executeExport(ctx context.Context, e *engine.Engine, opts ExportOptions, w io.Writer) (string, error) {
	f, err := export.ParseFormat(opts.Format)
	if err != nil {
		return "", err
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	var data []byte
	if opts.Server {
		var sf gateway.ExportFormat
		switch f {
		case export.FormatCSV:
			sf = gateway.ExportCSV
		case export.FormatJSON:
			sf = gateway.ExportJSON
		default:
			return "", fmt.Errorf("the server exports csv or json, not %s", f)
		}
		data, err = e.ExportServer(ctx, sf)
	} else {
		e.SetSearchNow(opts.Search)
		data, err = e.ExportLocal(f)
	}
	if err != nil {
		return "", err
	}

	switch opts.Output {
	case "-":
		_, err := w.Write(data)
		return "", err
	case "":
		opts.Output = export.FileName(f, opts.Now)
	}
	if err := os.WriteFile(opts.Output, data, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return opts.Output, nil
}

func newExportCommand(load ConfigLoader) *cobra.Command {
	var opts ExportOptions
	c := &cobra.Command{
		Use:   "export",
		Short: "export tasks to csv, json or markdown",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTasks(cmd, load, func(ctx context.Context, svc *app.Services) error {
				path, err := executeExport(ctx, svc.Engine, opts, cmd.OutOrStdout())
				if err != nil {
					return err
				}
				if path != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", path)
				}
				return nil
			})
		},
	}
	c.Flags().StringVarP(&opts.Format, "format", "f", "csv", "csv, json or md")
	c.Flags().BoolVar(&opts.Server, "server", false, "download the server-side export")
	c.Flags().StringVarP(&opts.Search, "search", "s", "", "only tasks whose description contains this text")
	c.Flags().StringVarP(&opts.Output, "output", "o", "", "file to write, - for stdout")
	return c
}

// executeHistory prints the most recent activity events, oldest last.
func executeHistory(l auditlog.Logger, filter auditlog.QueryFilter, w io.Writer) error {
	events, err := l.Query(filter)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "Sin actividad.")
		return nil
	}
	for _, e := range events {
		line := fmt.Sprintf("%s  %-4s %-16s", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Source, e.Kind)
		if e.TaskID > 0 {
			line += fmt.Sprintf(" #%d", e.TaskID)
		}
		if e.Message != "" {
			line += "  " + e.Message
		}
		if e.Count > 0 {
			line += fmt.Sprintf(" (%d)", e.Count)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func newHistoryCommand(load ConfigLoader) *cobra.Command {
	var (
		limit  int
		taskID int64
		source string
	)
	c := &cobra.Command{
		Use:   "history",
		Short: "show recent activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openServices(cmd, load)
			if err != nil {
				return err
			}
			defer svc.Close()
			return executeHistory(svc.Audit, auditlog.QueryFilter{
				Limit:  limit,
				TaskID: taskID,
				Source: source,
			}, cmd.OutOrStdout())
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 20, "number of events")
	c.Flags().Int64Var(&taskID, "task", 0, "only events for this task id")
	c.Flags().StringVar(&source, "source", "", "only events from tui or cli")
	return c
}
