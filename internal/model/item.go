package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Item is a stock line: one named thing kept at one location.
type Item struct {
	ID        string    `json:"item_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	Location  string    `json:"location"`
	Qty       int       `json:"qty"`
	Unit      string    `json:"unit"`
	Threshold *int      `json:"threshold,omitempty"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
	PhotoURLs string    `json:"photo_urls,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// Item statuses.
const (
	ItemStatusActive   = "active"
	ItemStatusOut      = "out"
	ItemStatusArchived = "archived"
)

// DefaultUnit is used when an item is added without a unit.
const DefaultUnit = "個"

// LowStock reports whether the quantity is at or below the threshold.
// A missing threshold counts as zero.
func (i Item) LowStock() bool {
	threshold := 0
	if i.Threshold != nil {
		threshold = *i.Threshold
	}
	return i.Qty <= threshold
}

// Archived reports whether the item has been archived.
func (i Item) Archived() bool {
	return i.Status == ItemStatusArchived
}

// Photos returns the photo references in order, skipping empty entries.
func (i Item) Photos() []string {
	if i.PhotoURLs == "" {
		return nil
	}
	var photos []string
	for _, p := range strings.Split(i.PhotoURLs, ",") {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}
	return photos
}

// Thumbnail returns the first photo reference, or "" if there is none.
func (i Item) Thumbnail() string {
	photos := i.Photos()
	if len(photos) == 0 {
		return ""
	}
	return photos[0]
}

// UnmarshalJSON accepts the loose shapes a spreadsheet backend produces:
// numbers as strings, empty cells for missing thresholds and timestamps.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var raw struct {
		plain
		Qty       json.RawMessage `json:"qty"`
		Threshold json.RawMessage `json:"threshold"`
		UpdatedAt json.RawMessage `json:"updated_at"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = Item(raw.plain)

	qty, err := looseInt(raw.Qty)
	if err != nil {
		return fmt.Errorf("item %s qty: %w", i.ID, err)
	}
	if qty != nil {
		i.Qty = *qty
	}

	i.Threshold, err = looseInt(raw.Threshold)
	if err != nil {
		return fmt.Errorf("item %s threshold: %w", i.ID, err)
	}

	i.UpdatedAt, err = looseTime(raw.UpdatedAt)
	if err != nil {
		return fmt.Errorf("item %s updated_at: %w", i.ID, err)
	}
	return nil
}

// looseInt decodes a JSON number, numeric string, empty string or null into a
// non-negative whole number. Spreadsheet cells may carry a trailing ".0".
func looseInt(raw json.RawMessage) (*int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" || s == `""` {
		return nil, nil
	}
	s = strings.Trim(s, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	switch {
	case f != math.Trunc(f):
		return nil, fmt.Errorf("%s is not a whole number", s)
	case f < 0:
		return nil, fmt.Errorf("%s is negative", s)
	case f >= math.MaxInt32:
		return nil, fmt.Errorf("%s is out of range", s)
	}
	n := int(f)
	return &n, nil
}

// looseTime decodes an RFC 3339 string; empty values yield the zero time.
func looseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}
