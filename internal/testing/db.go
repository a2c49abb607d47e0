// Package testing provides testing utilities and helpers for the basket project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/aristath/basket/internal/database"
)

// NewTestDB creates a migrated SQLite database in a per-test temporary
// directory. The connection is closed when the test finishes.
//
// Supported schema names:
//   - "history" - applies history_schema.sql with the standard profile
//   - "cache" - applies cache_schema.sql with the cache profile
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	profile := database.ProfileStandard
	if name == database.NameCache {
		profile = database.ProfileCache
	}

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}
	return db
}
