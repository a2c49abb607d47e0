package database

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// CheckpointMode is the argument of PRAGMA wal_checkpoint
type CheckpointMode string

const (
	CheckpointPassive  CheckpointMode = "PASSIVE"
	CheckpointTruncate CheckpointMode = "TRUNCATE"
)

// CheckpointResult mirrors the row returned by PRAGMA wal_checkpoint
type CheckpointResult struct {
	Busy         bool
	LogFrames    int
	Checkpointed int
}

// Checkpoint copies WAL frames back into the main database file
func (db *DB) Checkpoint(ctx context.Context, mode CheckpointMode) (CheckpointResult, error) {
	var busy, frames, checkpointed int
	query := fmt.Sprintf("PRAGMA wal_checkpoint(%s)", mode)
	if err := db.conn.QueryRowContext(ctx, query).Scan(&busy, &frames, &checkpointed); err != nil {
		return CheckpointResult{}, fmt.Errorf("checkpoint %s: %w", db.name, err)
	}
	return CheckpointResult{Busy: busy != 0, LogFrames: frames, Checkpointed: checkpointed}, nil
}

// Vacuum rebuilds the database file and returns its size in bytes before and
// after, computed from the page count
func (db *DB) Vacuum(ctx context.Context) (before, after int64, err error) {
	before, err = db.allocatedBytes(ctx)
	if err != nil {
		return 0, 0, err
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM"); err != nil {
		return 0, 0, fmt.Errorf("vacuum %s: %w", db.name, err)
	}
	after, err = db.allocatedBytes(ctx)
	return before, after, err
}

func (db *DB) allocatedBytes(ctx context.Context) (int64, error) {
	var pageCount, pageSize int64
	if err := db.conn.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("failed to get page size: %w", err)
	}
	return pageCount * pageSize, nil
}

// HealthCheck pings the database and runs a quick integrity check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, result)
	}
	return nil
}

// Stats describes the on-disk footprint of a database
type Stats struct {
	SizeBytes      int64  `json:"size_bytes"`
	WALSizeBytes   int64  `json:"wal_size_bytes"`
	PageCount      int64  `json:"page_count"`
	PageSize       int64  `json:"page_size"`
	FreelistCount  int64  `json:"freelist_count"`
	Profile        string `json:"profile"`
	SchemaChecksum string `json:"schema_checksum,omitempty"`
}

// GetStats reads file sizes and page counters
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{Profile: string(db.profile)}

	if fileInfo, err := os.Stat(db.path); err == nil {
		stats.SizeBytes = fileInfo.Size()
	}
	if fileInfo, err := os.Stat(db.path + "-wal"); err == nil {
		stats.WALSizeBytes = fileInfo.Size()
	}

	for pragma, dest := range map[string]*int64{
		"page_count":     &stats.PageCount,
		"page_size":      &stats.PageSize,
		"freelist_count": &stats.FreelistCount,
	} {
		if err := db.conn.QueryRow("PRAGMA " + pragma).Scan(dest); err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", pragma, err)
		}
	}

	checksum, err := db.SchemaChecksum()
	if err != nil {
		return nil, err
	}
	stats.SchemaChecksum = checksum
	return stats, nil
}

func isMissingTable(err error) bool {
	return strings.Contains(err.Error(), "no such table")
}
