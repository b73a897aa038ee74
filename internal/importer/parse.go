package importer

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kastheco/tareas/task"
)

// Item is one task read from an import file.
type Item struct {
	Description string
	Priority    task.Priority
	Completed   bool
}

// Parse reads items from a tareas CSV or JSON export, or from a JSON array
// of loosely shaped task objects such as other trackers produce. The format
// comes from name's extension and falls back to sniffing the content.
func Parse(data []byte, name string) ([]Item, error) {
	data = bytes.TrimPrefix(data, []byte("\uFEFF"))
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return parseJSON(data)
	case ".csv":
		return parseCSV(data)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		return parseJSON(data)
	}
	return parseCSV(data)
}

func parseJSON(data []byte) ([]Item, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	items := make([]Item, 0, len(raw))
	for _, obj := range raw {
		items = append(items, parseObject(obj))
	}
	return items, nil
}

// parseObject accepts the tareas keys and the common English ones.
func parseObject(obj map[string]interface{}) Item {
	var it Item
	for _, k := range []string{"descripcion", "description", "name", "title"} {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			it.Description = strings.TrimSpace(s)
			break
		}
	}

	for _, k := range []string{"prioridad", "priority"} {
		switch v := obj[k].(type) {
		case string:
			it.Priority = mapPriority(v)
		case map[string]interface{}:
			if s, ok := v["priority"].(string); ok {
				it.Priority = mapPriority(s)
			}
		}
		if it.Priority != "" {
			break
		}
	}
	if it.Priority == "" {
		it.Priority = task.DefaultPriority
	}

	for _, k := range []string{"completada", "completed", "done"} {
		if b, ok := obj[k].(bool); ok {
			it.Completed = b
			return it
		}
	}
	switch v := obj["status"].(type) {
	case string:
		it.Completed = closedStatus(v)
	case map[string]interface{}:
		if s, ok := v["status"].(string); ok {
			it.Completed = closedStatus(s)
		}
	}
	return it
}

func parseCSV(data []byte) ([]Item, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffComma(data)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	descCol, ok := lookup(col, "descripcion", "description", "name", "title")
	if !ok {
		return nil, fmt.Errorf("parse csv: no descripcion column in header %q", strings.Join(rows[0], string(r.Comma)))
	}
	prioCol, hasPrio := lookup(col, "prioridad", "priority")
	doneCol, hasDone := lookup(col, "completada", "completed", "done")

	items := make([]Item, 0, len(rows)-1)
	for _, row := range rows[1:] {
		it := Item{Priority: task.DefaultPriority}
		if descCol < len(row) {
			it.Description = strings.TrimSpace(row[descCol])
		}
		if hasPrio && prioCol < len(row) {
			it.Priority = mapPriority(row[prioCol])
		}
		if hasDone && doneCol < len(row) {
			it.Completed, _ = strconv.ParseBool(strings.TrimSpace(row[doneCol]))
		}
		items = append(items, it)
	}
	return items, nil
}

func lookup(col map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := col[n]; ok {
			return i, true
		}
	}
	return 0, false
}

// sniffComma picks ';' when the header line has more of them than commas.
func sniffComma(data []byte) rune {
	header, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(header, []byte(";")) > bytes.Count(header, []byte(",")) {
		return ';'
	}
	return ','
}

// mapPriority accepts the tareas priorities and the usual English scale.
func mapPriority(s string) task.Priority {
	if p, ok := task.ParsePriority(s); ok {
		return p
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "urgent", "high", "1", "2":
		return task.PriorityAlta
	case "low", "4":
		return task.PriorityBaja
	}
	return task.DefaultPriority
}

func closedStatus(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "complete", "completed", "closed":
		return true
	}
	return false
}
