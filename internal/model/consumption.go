package model

import "time"

// Consumption records stock taken from an item.
type Consumption struct {
	ID         int64     `json:"id"`
	ItemID     string    `json:"item_id"`
	Qty        int       `json:"qty"`
	Note       string    `json:"note,omitempty"`
	ConsumedAt time.Time `json:"consumed_at"`

	// Joined fields (not always populated).
	ItemName string `json:"item_name,omitempty"`
}
