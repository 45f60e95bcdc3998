package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action names understood by the remote API.
const (
	ActionGetMaster    = "getMaster"
	ActionGetInventory = "getInventory"
	ActionAddItem      = "addItem"
	ActionConsumeItem  = "consumeItem"
	ActionArchiveItem  = "archiveItem"
)

// Add strategies. StrategyAdd merges into an existing active item with the
// same name and location; StrategyNew always creates a new record.
const (
	StrategyAdd = "add"
	StrategyNew = "new"
)

// Validation errors returned by the request constructors.
var (
	ErrNameRequired     = errors.New("name required")
	ErrItemIDRequired   = errors.New("item_id required")
	ErrInvalidQty       = errors.New("invalid quantity")
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidStrategy  = errors.New("invalid strategy")
)

// Request is a write sent to the remote API. It is one of AddItem,
// ConsumeItem or ArchiveItem.
type Request interface {
	Action() string
	request()
}

// AddItem creates an item or, with StrategyAdd, tops up a matching one.
// A non-nil Threshold sets the low-stock threshold of the resulting item.
type AddItem struct {
	Name        string
	Category    string
	Location    string
	Qty         int
	Unit        string
	Threshold   *int
	Strategy    string
	Note        string
	PhotoBase64 string
}

// NewAddItem validates and normalizes an add request.
func NewAddItem(a AddItem) (AddItem, error) {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return AddItem{}, ErrNameRequired
	}
	if a.Qty < 0 {
		return AddItem{}, fmt.Errorf("%w: %d", ErrInvalidQty, a.Qty)
	}
	if a.Threshold != nil && *a.Threshold < 0 {
		return AddItem{}, fmt.Errorf("%w: %d", ErrInvalidThreshold, *a.Threshold)
	}
	if strings.TrimSpace(a.Unit) == "" {
		a.Unit = DefaultUnit
	}
	switch a.Strategy {
	case "":
		a.Strategy = StrategyNew
	case StrategyAdd, StrategyNew:
	default:
		return AddItem{}, fmt.Errorf("%w: %q", ErrInvalidStrategy, a.Strategy)
	}
	return a, nil
}

// Action implements Request.
func (AddItem) Action() string { return ActionAddItem }
func (AddItem) request() {}

// MarshalJSON writes the wire form of the request.
func (a AddItem) MarshalJSON() ([]byte, error) {
	var photo *string
	if a.PhotoBase64 != "" {
		photo = &a.PhotoBase64
	}
	return json.Marshal(struct {
		Action      string  `json:"action"`
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Location    string  `json:"location"`
		Qty         int     `json:"qty"`
		Unit        string  `json:"unit"`
		Threshold   *int    `json:"threshold,omitempty"`
		Strategy    string  `json:"strategy"`
		Note        string  `json:"note"`
		PhotoBase64 *string `json:"photoBase64"`
	}{ActionAddItem, a.Name, a.Category, a.Location, a.Qty, a.Unit, a.Threshold, a.Strategy, a.Note, photo})
}

// ConsumeItem records stock taken from an item.
type ConsumeItem struct {
	ItemID string
	Qty    int
	Note   string
}

// NewConsumeItem validates a consume request. At least one unit must be taken.
func NewConsumeItem(c ConsumeItem) (ConsumeItem, error) {
	if c.ItemID == "" {
		return ConsumeItem{}, ErrItemIDRequired
	}
	if c.Qty < 1 {
		return ConsumeItem{}, fmt.Errorf("%w: %d", ErrInvalidQty, c.Qty)
	}
	return c, nil
}

// Action implements Request.
func (ConsumeItem) Action() string { return ActionConsumeItem }
func (ConsumeItem) request() {}

// MarshalJSON writes the wire form of the request.
func (c ConsumeItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action     string `json:"action"`
		ItemID     string `json:"item_id"`
		ConsumeQty int    `json:"consume_qty"`
		Note       string `json:"note"`
	}{ActionConsumeItem, c.ItemID, c.Qty, c.Note})
}

// ArchiveItem hides an item from the default listing. There is no way back.
type ArchiveItem struct {
	ItemID string
}

// NewArchiveItem validates an archive request.
func NewArchiveItem(id string) (ArchiveItem, error) {
	if id == "" {
		return ArchiveItem{}, ErrItemIDRequired
	}
	return ArchiveItem{ItemID: id}, nil
}

// Action implements Request.
func (ArchiveItem) Action() string { return ActionArchiveItem }
func (ArchiveItem) request() {}

// MarshalJSON writes the wire form of the request.
func (a ArchiveItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Action string `json:"action"`
		ItemID string `json:"item_id"`
	}{ActionArchiveItem, a.ItemID})
}

// DecodeRequest parses a wire-form request body and validates it.
func DecodeRequest(data []byte) (Request, error) {
	var raw struct {
		Action      string  `json:"action"`
		ItemID      string  `json:"item_id"`
		Name        string  `json:"name"`
		Category    string  `json:"category"`
		Location    string  `json:"location"`
		Qty         int     `json:"qty"`
		ConsumeQty  int     `json:"consume_qty"`
		Unit        string  `json:"unit"`
		Threshold   *int    `json:"threshold"`
		Strategy    string  `json:"strategy"`
		Note        string  `json:"note"`
		PhotoBase64 *string `json:"photoBase64"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	switch raw.Action {
	case ActionAddItem:
		a := AddItem{
			Name:      raw.Name,
			Category:  raw.Category,
			Location:  raw.Location,
			Qty:       raw.Qty,
			Unit:      raw.Unit,
			Threshold: raw.Threshold,
			Strategy:  raw.Strategy,
			Note:      raw.Note,
		}
		if raw.PhotoBase64 != nil {
			a.PhotoBase64 = *raw.PhotoBase64
		}
		return NewAddItem(a)
	case ActionConsumeItem:
		return NewConsumeItem(ConsumeItem{ItemID: raw.ItemID, Qty: raw.ConsumeQty, Note: raw.Note})
	case ActionArchiveItem:
		return NewArchiveItem(raw.ItemID)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, raw.Action)
	}
}
