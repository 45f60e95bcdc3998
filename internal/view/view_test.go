package view

import (
	"testing"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sample() []model.Item {
	return []model.Item{
		{ID: "a", Name: "VVF Cable", Category: "電材", Location: "倉庫A", Qty: 7, Status: model.ItemStatusActive, UpdatedAt: base.Add(1 * time.Hour)},
		{ID: "b", Name: "Copper pipe", Category: "配管部材", Location: "車両1", Qty: 2, Status: model.ItemStatusActive, UpdatedAt: base.Add(3 * time.Hour)},
		{ID: "c", Name: "PVC pipe", Category: "配管部材", Location: "倉庫A", Qty: 0, Status: model.ItemStatusOut, UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "d", Name: "Old pipe", Category: "配管部材", Location: "倉庫A", Qty: 1, Status: model.ItemStatusArchived, UpdatedAt: base.Add(4 * time.Hour)},
	}
}

func ids(items []model.Item) string {
	s := ""
	for _, it := range items {
		s += it.ID
	}
	return s
}

func TestProject(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"default sort newest first", Filter{}, "bca"},
		{"qty ascending", Filter{Sort: SortQtyAsc}, "cba"},
		{"search is case-insensitive", Filter{Search: "PIPE"}, "bc"},
		{"category", Filter{Category: "電材"}, "a"},
		{"location", Filter{Location: "倉庫A", Sort: SortQtyAsc}, "ca"},
		{"archived never shown", Filter{Search: "old"}, ""},
		{"archived hidden under matching filters", Filter{Category: "配管部材", Location: "倉庫A"}, "c"},
		{"unknown sort falls back", Filter{Sort: "name"}, "bca"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ids(Project(sample(), tt.filter)); got != tt.want {
				t.Errorf("Project(%+v) = %q, want %q", tt.filter, got, tt.want)
			}
		})
	}
}

func TestProjectStableOnTies(t *testing.T) {
	items := []model.Item{
		{ID: "1", Qty: 3, UpdatedAt: base},
		{ID: "2", Qty: 1, UpdatedAt: base},
		{ID: "3", Qty: 3, UpdatedAt: base},
	}

	if got := ids(Project(items, Filter{})); got != "123" {
		t.Errorf("updated ties should keep input order, got %q", got)
	}
	if got := ids(Project(items, Filter{Sort: SortQtyAsc})); got != "213" {
		t.Errorf("qty ties should keep input order, got %q", got)
	}
}

func TestProjectDoesNotModifyInput(t *testing.T) {
	items := sample()
	Project(items, Filter{Sort: SortQtyAsc})
	if ids(items) != "abcd" {
		t.Errorf("input reordered: %q", ids(items))
	}
}
