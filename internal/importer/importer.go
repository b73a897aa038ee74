package importer

import (
	"context"
	"fmt"

	"github.com/kastheco/tareas/gateway"
	"github.com/kastheco/tareas/task"
)

// API is the subset of gateway.Gateway that Importer needs.
type API interface {
	List(ctx context.Context, sortKey, order string) ([]task.Task, error)
	Create(ctx context.Context, description string, priority task.Priority) (string, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (string, error)
}

// Failure records an item the API rejected.
type Failure struct {
	Description string
	Err         error
}

// Result summarises an import.
type Result struct {
	Created int
	// Skipped counts blank items and descriptions that already exist.
	Skipped int
	Failed  []Failure
}

// Importer creates parsed items through the task API.
type Importer struct {
	api API
}

// NewImporter creates an Importer writing to api.
func NewImporter(api API) *Importer {
	return &Importer{api: api}
}

// Run creates every item whose description is not on the server yet, then
// marks the completed ones. Connectivity failures abort the run; per-item
// server rejections are collected in Result.Failed.
func (im *Importer) Run(ctx context.Context, items []Item) (Result, error) {
	var res Result

	existing, err := im.api.List(ctx, "", "")
	if err != nil {
		return res, fmt.Errorf("list tasks: %w", err)
	}

	var completed []string
	for _, it := range items {
		if it.Description == "" {
			res.Skipped++
			continue
		}
		if _, dup := task.FindDuplicate(existing, it.Description, -1); dup {
			res.Skipped++
			continue
		}
		if _, err := im.api.Create(ctx, it.Description, it.Priority); err != nil {
			if gateway.IsConnectivity(err) {
				return res, err
			}
			res.Failed = append(res.Failed, Failure{Description: it.Description, Err: err})
			continue
		}
		res.Created++
		existing = append(existing, task.Task{Description: it.Description})
		if it.Completed {
			completed = append(completed, it.Description)
		}
	}

	if len(completed) == 0 {
		return res, nil
	}

	// Create does not return the new id; look the tasks up once.
	tasks, err := im.api.List(ctx, "", "")
	if err != nil {
		return res, fmt.Errorf("list tasks: %w", err)
	}
	for _, desc := range completed {
		t, ok := task.FindDuplicate(tasks, desc, -1)
		if !ok {
			continue
		}
		if _, err := im.api.SetCompleted(ctx, t.ID, true); err != nil {
			if gateway.IsConnectivity(err) {
				return res, err
			}
			res.Failed = append(res.Failed, Failure{Description: desc, Err: err})
		}
	}
	return res, nil
}
