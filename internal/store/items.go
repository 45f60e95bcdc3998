package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
)

// Errors returned by item writes.
var (
	ErrNotFound = errors.New("item not found")
	ErrArchived = errors.New("item archived")
)

const itemColumns = `id, name, category, location, qty, unit, threshold, status, note, photo_mime, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	var (
		item      model.Item
		id        int64
		threshold sql.NullInt64
		photoMime sql.NullString
	)
	if err := s.Scan(&id, &item.Name, &item.Category, &item.Location, &item.Qty, &item.Unit,
		&threshold, &item.Status, &item.Note, &photoMime, &item.UpdatedAt); err != nil {
		return nil, err
	}
	item.ID = strconv.FormatInt(id, 10)
	if threshold.Valid {
		n := int(threshold.Int64)
		item.Threshold = &n
	}
	if photoMime.Valid && photoMime.String != "" {
		item.PhotoURLs = PhotoPath(id)
	}
	return &item, nil
}

// PhotoPath is the server-relative path an item's photo is served from.
func PhotoPath(id int64) string {
	return fmt.Sprintf("/photos/%d", id)
}

// ParseItemID converts a wire item id to a row id.
func ParseItemID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotFound, s)
	}
	return id, nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns every item, archived ones included, oldest first.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// AddItem stores an add request. With the add strategy the quantity is merged
// into the first non-archived item with the same name and location; an item
// that was out becomes active again. photo may be nil.
func AddItem(ctx context.Context, db *sql.DB, a model.AddItem, photo []byte, photoMime string) (*model.Item, error) {
	if a.Qty < 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidQty, a.Qty)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if a.Strategy == model.StrategyAdd {
		err = tx.QueryRowContext(ctx,
			`SELECT id FROM items WHERE name = ? AND location = ? AND status != 'archived'
			 ORDER BY id LIMIT 1`,
			a.Name, a.Location,
		).Scan(&id)
		if err != nil && err != sql.ErrNoRows {
			return nil, fmt.Errorf("finding item to merge: %w", err)
		}
	}

	if id != 0 {
		_, err = tx.ExecContext(ctx,
			`UPDATE items SET qty = qty + ?,
			        status = CASE WHEN qty + ? > 0 THEN 'active' ELSE status END,
			        threshold = COALESCE(?, threshold),
			        updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			a.Qty, a.Qty, a.Threshold, id,
		)
		if err != nil {
			return nil, fmt.Errorf("merging item: %w", err)
		}
		if photo != nil {
			_, err = tx.ExecContext(ctx,
				`UPDATE items SET photo = ?, photo_mime = ? WHERE id = ? AND photo IS NULL`,
				photo, photoMime, id,
			)
			if err != nil {
				return nil, fmt.Errorf("setting merged item photo: %w", err)
			}
		}
	} else {
		var blob, mime any
		if photo != nil {
			blob, mime = photo, photoMime
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO items (name, category, location, qty, unit, threshold, note, photo, photo_mime)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.Name, a.Category, a.Location, a.Qty, a.Unit, a.Threshold, a.Note, blob, mime,
		)
		if err != nil {
			return nil, fmt.Errorf("creating item: %w", err)
		}
		id, err = result.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting item id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}
	return GetItem(ctx, db, id)
}

// ConsumeItem takes qty units from an item and logs the consumption. The
// stock never goes below zero; an item that reaches zero is marked out.
func ConsumeItem(ctx context.Context, db *sql.DB, id int64, qty int, note string) (*model.Item, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidQty, qty)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkWritable(ctx, tx, id); err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET qty = MAX(0, qty - ?),
		        status = CASE WHEN qty - ? <= 0 THEN 'out' ELSE status END,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		qty, qty, id,
	)
	if err != nil {
		return nil, fmt.Errorf("consuming item: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO consumptions (item_id, qty, note) VALUES (?, ?, ?)`,
		id, qty, note,
	)
	if err != nil {
		return nil, fmt.Errorf("logging consumption: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing consumption: %w", err)
	}
	return GetItem(ctx, db, id)
}

// ArchiveItem hides an item from default listings. The row is kept.
func ArchiveItem(ctx context.Context, db *sql.DB, id int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkWritable(ctx, tx, id); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET status = 'archived', updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("archiving item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing archive: %w", err)
	}
	return nil
}

// checkWritable fails for unknown and archived items.
func checkWritable(ctx context.Context, tx *sql.Tx, id int64) error {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM items WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("checking item: %w", err)
	}
	if status == model.ItemStatusArchived {
		return fmt.Errorf("%w: %d", ErrArchived, id)
	}
	return nil
}

// GetItemPhoto returns an item's photo data and MIME type.
func GetItemPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM items WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item photo: %w", err)
	}
	return photo, mime.String, nil
}
