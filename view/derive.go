package view

import (
	"slices"
	"strings"

	"github.com/kastheco/tareas/task"
)

// Result is the derived, render-ready view.
type Result struct {
	PageItems []task.Task
	// Page is the clamped page actually shown.
	Page       int
	TotalPages int
	// TotalCount and PendingCount are computed over the whole cache, not
	// the filtered subset.
	TotalCount    int
	PendingCount  int
	FilteredCount int
}

// Derive computes the visible page. It is pure: the input slice is not
// modified and equal inputs always produce equal results.
func Derive(tasks []task.Task, s State) Result {
	filtered := Filtered(tasks, s)

	size := PageSizeOrDefault(s.PageSize)
	pages := TotalPages(len(filtered), size)
	page := ClampPage(s.Page, pages)

	start := (page - 1) * size
	end := min(start+size, len(filtered))

	res := Result{
		PageItems:     filtered[start:end:end],
		Page:          page,
		TotalPages:    pages,
		TotalCount:    len(tasks),
		FilteredCount: len(filtered),
	}
	for _, t := range tasks {
		if t.Pending() {
			res.PendingCount++
		}
	}
	return res
}

// Filtered returns a new slice with the tasks matching the search text,
// sorted by the state's sort key and order.
func Filtered(tasks []task.Task, s State) []task.Task {
	q := s.normalizedSearch()
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if q == "" || strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	Sort(out, s.SortKey, s.SortOrder)
	return out
}

// TotalPages returns max(1, ceil(n/size)).
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// ClampPage forces page into [1, pages].
func ClampPage(page, pages int) int {
	if pages < 1 {
		pages = 1
	}
	return max(1, min(page, pages))
}

// Sort orders tasks in place. The primary key follows order; ties fall back
// to creation time descending and then id ascending, so distinct tasks never
// compare equal.
func Sort(tasks []task.Task, key SortKey, order SortOrder) {
	slices.SortStableFunc(tasks, func(a, b task.Task) int {
		return Compare(a, b, key, order)
	})
}

// Compare is the total order used by Sort.
func Compare(a, b task.Task, key SortKey, order SortOrder) int {
	if c := comparePrimary(a, b, key); c != 0 {
		if order == Asc {
			return c
		}
		return -c
	}
	if c := b.CreatedTime().Compare(a.CreatedTime()); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func comparePrimary(a, b task.Task, key SortKey) int {
	switch key {
	case SortFecha:
		return a.CreatedTime().Compare(b.CreatedTime())
	case SortPrioridad:
		return a.Priority.Weight() - b.Priority.Weight()
	case SortDescripcion:
		return strings.Compare(strings.ToLower(a.Description), strings.ToLower(b.Description))
	case SortCompletada:
		return boolRank(a.Completed) - boolRank(b.Completed)
	case SortID:
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	default:
		// Unknown keys have no value on the record; every task compares equal
		// and the tie-breaks decide.
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
