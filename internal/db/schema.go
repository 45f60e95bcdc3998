package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
    name     TEXT PRIMARY KEY,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS locations (
    name     TEXT PRIMARY KEY,
    position INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS items (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    category   TEXT NOT NULL DEFAULT '',
    location   TEXT NOT NULL DEFAULT '',
    qty        INTEGER NOT NULL DEFAULT 0 CHECK (qty >= 0),
    unit       TEXT NOT NULL DEFAULT '',
    threshold  INTEGER CHECK (threshold IS NULL OR threshold >= 0),
    status     TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'out', 'archived')),
    note       TEXT NOT NULL DEFAULT '',
    photo      BLOB,
    photo_mime TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS consumptions (
    id          INTEGER PRIMARY KEY,
    item_id     INTEGER NOT NULL REFERENCES items(id),
    qty         INTEGER NOT NULL CHECK (qty > 0),
    note        TEXT NOT NULL DEFAULT '',
    consumed_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS asset_cache (
    cache_name   TEXT NOT NULL,
    path         TEXT NOT NULL,
    content_type TEXT NOT NULL,
    body         BLOB NOT NULL,
    cached_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (cache_name, path)
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: merge-on-add looks items up by name and location.
	`CREATE INDEX IF NOT EXISTS idx_items_name_location
	     ON items(name, location) WHERE status != 'archived'`,
	// Migration 2: consumption history per item.
	`CREATE INDEX IF NOT EXISTS idx_consumptions_item
	     ON consumptions(item_id, consumed_at)`,
}

// EnsureSchema creates all tables and indexes if they don't already exist
// and applies the migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}
