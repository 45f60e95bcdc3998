package db

import (
	"database/sql"
	"testing"
)

// NewTestDB returns an in-memory database with the schema applied and each
// fixture statement executed in order. It is closed when the test ends.
func NewTestDB(t *testing.T, fixtures ...string) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := EnsureSchema(database); err != nil {
		t.Fatalf("applying schema: %v", err)
	}
	for i, stmt := range fixtures {
		if _, err := database.Exec(stmt); err != nil {
			t.Fatalf("fixture %d: %v", i, err)
		}
	}
	return database
}
