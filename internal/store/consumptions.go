package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
)

// ListConsumptions returns the consumption log, newest first. An itemID of 0
// returns the log for all items.
func ListConsumptions(ctx context.Context, db *sql.DB, itemID int64, limit int) ([]model.Consumption, error) {
	query := `SELECT c.id, c.item_id, c.qty, c.note, c.consumed_at, i.name
	          FROM consumptions c JOIN items i ON i.id = c.item_id`
	var args []any
	if itemID != 0 {
		query += ` WHERE c.item_id = ?`
		args = append(args, itemID)
	}
	query += ` ORDER BY c.consumed_at DESC, c.id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing consumptions: %w", err)
	}
	defer rows.Close()

	history := []model.Consumption{}
	for rows.Next() {
		var c model.Consumption
		var id int64
		if err := rows.Scan(&c.ID, &id, &c.Qty, &c.Note, &c.ConsumedAt, &c.ItemName); err != nil {
			return nil, fmt.Errorf("scanning consumption: %w", err)
		}
		c.ItemID = strconv.FormatInt(id, 10)
		history = append(history, c)
	}
	return history, rows.Err()
}
