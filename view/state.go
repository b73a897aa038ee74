// Package view derives the visible page of tasks from the cached collection
// and an explicit State. Nothing in this package touches the network or any
// package-level mutable state.
package view

import (
	"slices"
	"strings"

	"github.com/kastheco/tareas/task"
)

// SortKey names the primary sort column.
type SortKey string

const (
	SortFecha       SortKey = "fecha"
	SortPrioridad   SortKey = "prioridad"
	SortDescripcion SortKey = "descripcion"
	SortCompletada  SortKey = "completada"
	SortID          SortKey = "id"
)

// SortKeys lists the keys the UI cycles through.
var SortKeys = []SortKey{SortFecha, SortPrioridad, SortDescripcion, SortCompletada, SortID}

// SortOrder is the direction applied to the primary key.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// PageSizes are the allowed page sizes.
var PageSizes = []int{5, 10, 20, 50}

// DefaultPageSize is used when a stored or requested size is not allowed.
const DefaultPageSize = 10

// ValidPageSize reports whether n is one of PageSizes.
func ValidPageSize(n int) bool {
	return slices.Contains(PageSizes, n)
}

// PageSizeOrDefault returns n when allowed, DefaultPageSize otherwise.
func PageSizeOrDefault(n int) int {
	if ValidPageSize(n) {
		return n
	}
	return DefaultPageSize
}

// NextPageSize cycles through PageSizes.
func NextPageSize(n int) int {
	i := slices.Index(PageSizes, n)
	return PageSizes[(i+1)%len(PageSizes)]
}

// State is the transient view configuration. Methods return modified copies;
// the selection map is never shared between copies that differ.
type State struct {
	SortKey    SortKey
	SortOrder  SortOrder
	SearchText string
	Page       int
	PageSize   int
	Selection  map[int64]struct{}
}

// DefaultState sorts newest first, page 1, DefaultPageSize.
func DefaultState() State {
	return State{
		SortKey:   SortFecha,
		SortOrder: Desc,
		Page:      1,
		PageSize:  DefaultPageSize,
	}
}

// WithSearch sets the search text and resets to page 1.
func (s State) WithSearch(q string) State {
	s.SearchText = q
	s.Page = 1
	return s
}

// WithSort sets the sort key and order and resets to page 1.
func (s State) WithSort(key SortKey, order SortOrder) State {
	s.SortKey = key
	if order != Asc {
		order = Desc
	}
	s.SortOrder = order
	s.Page = 1
	return s
}

// ToggleSort selects key, flipping the order when key is already active.
// A newly selected key starts descending.
func (s State) ToggleSort(key SortKey) State {
	if s.SortKey == key {
		return s.WithSort(key, s.SortOrder.Flip())
	}
	return s.WithSort(key, Desc)
}

// WithPage sets the requested page. The value is clamped by Derive.
func (s State) WithPage(p int) State {
	s.Page = p
	return s
}

// WithPageSize sets the page size, falling back to DefaultPageSize, and
// resets to page 1.
func (s State) WithPageSize(n int) State {
	s.PageSize = PageSizeOrDefault(n)
	s.Page = 1
	return s
}

// Selected reports whether id is selected.
func (s State) Selected(id int64) bool {
	_, ok := s.Selection[id]
	return ok
}

// SelectionCount returns the number of selected ids.
func (s State) SelectionCount() int { return len(s.Selection) }

// SelectedIDs returns the selection in ascending order.
func (s State) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.Selection))
	for id := range s.Selection {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// ToggleSelected adds or removes id from the selection.
func (s State) ToggleSelected(id int64) State {
	sel := s.cloneSelection()
	if _, ok := sel[id]; ok {
		delete(sel, id)
	} else {
		sel[id] = struct{}{}
	}
	s.Selection = sel
	return s
}

// SelectAll adds every id in ids to the selection.
func (s State) SelectAll(ids []int64) State {
	sel := s.cloneSelection()
	for _, id := range ids {
		sel[id] = struct{}{}
	}
	s.Selection = sel
	return s
}

// ClearSelection empties the selection.
func (s State) ClearSelection() State {
	s.Selection = nil
	return s
}

// PruneSelection drops selected ids that are not present in tasks.
func (s State) PruneSelection(tasks []task.Task) State {
	if len(s.Selection) == 0 {
		return s
	}
	present := make(map[int64]struct{}, len(tasks))
	for _, t := range tasks {
		present[t.ID] = struct{}{}
	}
	sel := make(map[int64]struct{}, len(s.Selection))
	for id := range s.Selection {
		if _, ok := present[id]; ok {
			sel[id] = struct{}{}
		}
	}
	s.Selection = sel
	return s
}

func (s State) cloneSelection() map[int64]struct{} {
	sel := make(map[int64]struct{}, len(s.Selection)+1)
	for id := range s.Selection {
		sel[id] = struct{}{}
	}
	return sel
}

// normalizedSearch is the case-folded, trimmed search text.
func (s State) normalizedSearch() string {
	return strings.ToLower(strings.TrimSpace(s.SearchText))
}
