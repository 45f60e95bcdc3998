package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
)

// GetAPISecret returns the shared secret API clients sign their tokens with.
// If no secret exists, it generates one, stores it, and returns it.
// Uses INSERT OR IGNORE + re-SELECT so concurrent first calls agree.
func GetAPISecret(ctx context.Context, db *sql.DB) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api secret: %w", err)
	}
	candidate := hex.EncodeToString(buf)

	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES ('api_secret', ?)`,
		candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing api_secret: %w", err)
	}

	// Either our insert or the existing value.
	var secret string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = 'api_secret'`,
	).Scan(&secret)
	if err != nil {
		return "", fmt.Errorf("querying api_secret: %w", err)
	}

	return secret, nil
}
