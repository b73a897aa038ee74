package taskserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/kastheco/tareas/task"
)

// ImportJSON loads a tareas.json file (the flat array older file-backed servers
// persisted) into store. A missing file is a no-op. The import is idempotent:
// tasks whose description already exists are skipped, as are blank ones.
// Ids are reassigned; creation times, priorities and completion are kept.
//
// Returns the number of tasks newly created.
func ImportJSON(ctx context.Context, store Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var tasks []task.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}

	imported := 0
	for _, t := range tasks {
		desc := strings.TrimSpace(t.Description)
		if desc == "" {
			continue
		}
		_, err := store.Create(ctx, task.Task{
			Description: desc,
			Completed:   t.Completed,
			Priority:    task.PriorityOrDefault(string(t.Priority)),
			CreatedAt:   t.CreatedAt,
		})
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return imported, fmt.Errorf("import task %d: %w", t.ID, err)
		}
		imported++
	}
	return imported, nil
}
