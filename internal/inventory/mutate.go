package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/erazemk/zaloga/internal/model"
)

// Errors returned by the local mutations.
var (
	ErrNotFound = errors.New("item not found")
	ErrArchived = errors.New("item archived")
)

// ApplyAdd adds stock to items. With StrategyAdd, the first non-archived item
// with the same name and location gets its quantity increased; otherwise a new
// active item with the given id is appended. A threshold in the request
// replaces the item's one. Photos are not kept locally. It returns the updated
// slice and the item that was created or changed.
func ApplyAdd(items []model.Item, a model.AddItem, id string, now time.Time) ([]model.Item, model.Item) {
	if a.Strategy == model.StrategyAdd {
		for i := range items {
			it := &items[i]
			if it.Archived() || it.Name != a.Name || it.Location != a.Location {
				continue
			}
			it.Qty += a.Qty
			if it.Qty > 0 && it.Status == model.ItemStatusOut {
				it.Status = model.ItemStatusActive
			}
			if a.Threshold != nil {
				it.Threshold = new(int)
				*it.Threshold = *a.Threshold
			}
			it.UpdatedAt = now
			return items, *it
		}
	}

	item := model.Item{
		ID:        id,
		Name:      a.Name,
		Category:  a.Category,
		Location:  a.Location,
		Qty:       a.Qty,
		Unit:      a.Unit,
		Threshold: a.Threshold,
		Status:    model.ItemStatusActive,
		UpdatedAt: now,
		Note:      a.Note,
	}
	return append(items, item), item
}

// ApplyConsume takes qty units from the item with the given id. The quantity
// never drops below zero; reaching zero marks the item out.
func ApplyConsume(items []model.Item, id string, qty int, now time.Time) (model.Item, error) {
	it, err := lookup(items, id)
	if err != nil {
		return model.Item{}, err
	}
	if qty < 0 {
		return model.Item{}, fmt.Errorf("%w: %d", model.ErrInvalidQty, qty)
	}

	it.Qty = max(0, it.Qty-qty)
	if it.Qty == 0 {
		it.Status = model.ItemStatusOut
	}
	it.UpdatedAt = now
	return *it, nil
}

// ApplyArchive marks the item with the given id archived.
func ApplyArchive(items []model.Item, id string, now time.Time) (model.Item, error) {
	it, err := lookup(items, id)
	if err != nil {
		return model.Item{}, err
	}
	it.Status = model.ItemStatusArchived
	it.UpdatedAt = now
	return *it, nil
}

func lookup(items []model.Item, id string) (*model.Item, error) {
	for i := range items {
		if items[i].ID != id {
			continue
		}
		if items[i].Archived() {
			return nil, fmt.Errorf("%w: %s", ErrArchived, id)
		}
		return &items[i], nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}
