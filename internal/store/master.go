package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/zaloga/internal/model"
)

// GetMaster returns the category and location choices in display order.
func GetMaster(ctx context.Context, db *sql.DB) (*model.MasterData, error) {
	categories, err := listNames(ctx, db, "categories")
	if err != nil {
		return nil, err
	}
	locations, err := listNames(ctx, db, "locations")
	if err != nil {
		return nil, err
	}
	return &model.MasterData{Categories: categories, Locations: locations}, nil
}

func listNames(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM `+table+` ORDER BY position, name`)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", table, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", table, err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// SetMaster replaces the category and location choices. Duplicates and empty
// names are skipped; the first occurrence fixes the position.
func SetMaster(ctx context.Context, db *sql.DB, m model.MasterData) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceNames(ctx, tx, "categories", m.Categories); err != nil {
		return err
	}
	if err := replaceNames(ctx, tx, "locations", m.Locations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing master data: %w", err)
	}
	return nil
}

func replaceNames(ctx context.Context, tx *sql.Tx, table string, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	for i, name := range names {
		if name == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO `+table+` (name, position) VALUES (?, ?)`, name, i,
		)
		if err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}
