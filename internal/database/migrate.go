package database

import (
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

//go:embed schemas/*.sql
var schemaFS embed.FS

// Names of the databases the application opens. Each maps to a schema file.
const (
	NameHistory = "history"
	NameCache   = "cache"
)

var schemaFiles = map[string]string{
	NameHistory: "schemas/history_schema.sql",
	NameCache:   "schemas/cache_schema.sql",
}

const ledgerDDL = `CREATE TABLE IF NOT EXISTS schema_ledger (
	schema_file TEXT PRIMARY KEY,
	checksum TEXT NOT NULL,
	applied_at INTEGER NOT NULL
)`

// Migrate applies the embedded schema registered for this database's name
// and records its checksum in schema_ledger. A schema whose checksum is
// already recorded is skipped. Databases without a registered schema are
// left alone.
func (db *DB) Migrate() error {
	schemaFile, ok := schemaFiles[db.name]
	if !ok {
		return nil
	}

	content, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaFile, err)
	}
	sum := sha256.Sum256(content)
	checksum := hex.EncodeToString(sum[:])

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec(ledgerDDL); err != nil {
			return fmt.Errorf("failed to create schema ledger: %w", err)
		}

		var applied string
		err := tx.QueryRow("SELECT checksum FROM schema_ledger WHERE schema_file = ?", schemaFile).Scan(&applied)
		switch {
		case err == nil && applied == checksum:
			return nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("failed to read schema ledger: %w", err)
		}

		// Schemas only use IF NOT EXISTS, so a changed file is re-run whole.
		if _, err := tx.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
		}
		_, err = tx.Exec(`INSERT INTO schema_ledger (schema_file, checksum, applied_at) VALUES (?, ?, ?)
			ON CONFLICT(schema_file) DO UPDATE SET checksum = excluded.checksum, applied_at = excluded.applied_at`,
			schemaFile, checksum, time.Now().Unix())
		if err != nil {
			return fmt.Errorf("failed to record schema %s: %w", schemaFile, err)
		}
		return nil
	})
}

// SchemaChecksum returns the recorded checksum of this database's schema,
// or "" if none was applied
func (db *DB) SchemaChecksum() (string, error) {
	schemaFile, ok := schemaFiles[db.name]
	if !ok {
		return "", nil
	}
	var checksum string
	err := db.conn.QueryRow("SELECT checksum FROM schema_ledger WHERE schema_file = ?", schemaFile).Scan(&checksum)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || isMissingTable(err) {
			return "", nil
		}
		return "", err
	}
	return checksum, nil
}
