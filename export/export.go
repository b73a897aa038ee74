// Package export renders tasks as CSV, JSON or Markdown for download,
// clipboard copy and CLI output.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kastheco/tareas/task"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts csv, json and md/markdown, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown export format %q (want csv, json or md)", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// DefaultTimeLayout renders creation times as day/month/year hour:minute.
const DefaultTimeLayout = "02/01/2006 15:04"

// bom is the UTF-8 byte-order mark spreadsheet apps use to detect the encoding.
const bom = "\uFEFF"

var csvHeader = []string{"id", "descripcion", "completada", "prioridad", "fechaCreacion"}

// Options controls rendering.
type Options struct {
	// TimeLayout formats fechaCreacion in CSV and Markdown. Empty uses DefaultTimeLayout.
	TimeLayout string
	// Location converts times before formatting. Nil uses time.Local.
	Location *time.Location
}

func (o Options) layout() string {
	if o.TimeLayout == "" {
		return DefaultTimeLayout
	}
	return o.TimeLayout
}

func (o Options) format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	loc := o.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(o.layout())
}

// Render encodes tasks in format f.
func Render(f Format, tasks []task.Task, opts Options) ([]byte, error) {
	switch f {
	case FormatCSV:
		return CSV(tasks, opts)
	case FormatJSON:
		return JSON(tasks)
	case FormatMarkdown:
		return []byte(Markdown(tasks, opts)), nil
	}
	return nil, fmt.Errorf("unknown export format %q", f)
}

// CSV writes a BOM, a header row and one row per task, separated by ';'.
// Fields containing the separator, quotes or line breaks are quoted with
// embedded quotes doubled.
func CSV(tasks []task.Task, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(bom)

	w := csv.NewWriter(&buf)
	w.Comma = ';'
	w.UseCRLF = true
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range tasks {
		row := []string{
			strconv.FormatInt(t.ID, 10),
			t.Description,
			strconv.FormatBool(t.Completed),
			string(t.Priority),
			opts.format(t.CreatedTime()),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row %d: %w", t.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON writes a pretty-printed array. An empty input renders as [].
func JSON(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return append(b, '\n'), nil
}

// Markdown renders a GitHub-flavoured table.
func Markdown(tasks []task.Task, opts Options) string {
	var sb strings.Builder
	sb.WriteString("| | ID | Description | Priority | Created |\n")
	sb.WriteString("|---|---:|---|---|---|\n")
	for _, t := range tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		desc := strings.NewReplacer("|", `\|`, "\n", " ").Replace(t.Description)
		fmt.Fprintf(&sb, "| %s | %d | %s | %s | %s |\n", check, t.ID, desc, t.Priority, opts.format(t.CreatedTime()))
	}
	return sb.String()
}

// FileName returns a timestamped download name such as tareas-20260102-150405.csv.
func FileName(f Format, now time.Time) string {
	return "tareas-" + now.Format("20060102-150405") + f.Extension()
}
