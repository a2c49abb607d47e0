package analysis

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrReportNotFound is returned for unknown or expired report IDs
var ErrReportNotFound = errors.New("report not found")

// ReportRepository caches reports in cache.db as msgpack blobs with an
// expiry timestamp.
type ReportRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db, now: time.Now}
}

// Store saves report with expiration = now + ttl
func (r *ReportRepository) Store(ctx context.Context, report *Report, ttl time.Duration) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO analysis_reports (id, data, created_at, expires_at) VALUES (?, ?, ?, ?)",
		report.ID, data, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store report %s: %w", report.ID, err)
	}
	return nil
}

// Get returns a report that has not yet expired
func (r *ReportRepository) Get(ctx context.Context, id string) (*Report, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		"SELECT data FROM analysis_reports WHERE id = ? AND expires_at > ?",
		id, r.now().Unix(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report %s: %w", id, err)
	}

	return decodeReport(data)
}

// DeleteExpired removes all rows where expires_at <= now and returns how
// many were deleted.
func (r *ReportRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM analysis_reports WHERE expires_at <= ?", r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reports: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// Count returns the number of cached reports, expired or not
func (r *ReportRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM analysis_reports").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}
	return n, nil
}

// encodeReport serializes with msgpack, keyed by the json tags so both
// encodings share field names.
func encodeReport(report *Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeReport(data []byte) (*Report, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")

	var report Report
	if err := dec.Decode(&report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}
