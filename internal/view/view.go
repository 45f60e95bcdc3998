// Package view derives the visible item list from the store contents and the
// current filter controls.
package view

import (
	"slices"
	"strings"

	"github.com/erazemk/zaloga/internal/model"
)

// Sort orders.
const (
	SortUpdatedDesc = "updated_desc"
	SortQtyAsc      = "qty_asc"
)

// Filter holds the list controls. Empty fields match everything.
type Filter struct {
	Search   string
	Category string
	Location string
	Sort     string
}

// ParseSort returns a known sort order, defaulting to newest first.
func ParseSort(s string) string {
	if s == SortQtyAsc {
		return SortQtyAsc
	}
	return SortUpdatedDesc
}

// Project returns the items to display: archived items are always dropped,
// the name must contain the search term (case-insensitive), and category and
// location must match exactly when set. Sorting is stable. The input slice is
// not modified.
func Project(items []model.Item, f Filter) []model.Item {
	term := strings.ToLower(strings.TrimSpace(f.Search))

	visible := make([]model.Item, 0, len(items))
	for _, it := range items {
		if it.Archived() {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(it.Name), term) {
			continue
		}
		if f.Category != "" && it.Category != f.Category {
			continue
		}
		if f.Location != "" && it.Location != f.Location {
			continue
		}
		visible = append(visible, it)
	}

	switch ParseSort(f.Sort) {
	case SortQtyAsc:
		slices.SortStableFunc(visible, func(a, b model.Item) int {
			return a.Qty - b.Qty
		})
	default:
		slices.SortStableFunc(visible, func(a, b model.Item) int {
			return b.UpdatedAt.Compare(a.UpdatedAt)
		})
	}
	return visible
}
