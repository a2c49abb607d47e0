// Package reliability keeps the persistent state healthy: it archives
// finished reports to object storage and runs database maintenance.
package reliability

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// minArchivesToKeep survive rotation regardless of age
const minArchivesToKeep = 3

// ObjectStore is the subset of R2Client used by the archiver
type ObjectStore interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// ArchivedReport is one report stored in the bucket
type ArchivedReport struct {
	ReportID  string    `json:"report_id"`
	Key       string    `json:"key"`
	SizeBytes int64     `json:"size_bytes"`
	Timestamp time.Time `json:"timestamp"`
	AgeHours  int64     `json:"age_hours"`
}

// ReportArchiver writes report JSON to <prefix><id>.json
type ReportArchiver struct {
	store  ObjectStore
	prefix string
	log    zerolog.Logger
	now    func() time.Time
}

// NewReportArchiver creates a new report archiver
func NewReportArchiver(store ObjectStore, prefix string, log zerolog.Logger) *ReportArchiver {
	return &ReportArchiver{
		store:  store,
		prefix: prefix,
		log:    log.With().Str("service", "report_archive").Logger(),
		now:    time.Now,
	}
}

// Key returns the object key for a report
func (a *ReportArchiver) Key(reportID string) string {
	return a.prefix + reportID + ".json"
}

// Archive uploads one encoded report
func (a *ReportArchiver) Archive(ctx context.Context, reportID string, body []byte) (string, error) {
	if reportID == "" {
		return "", fmt.Errorf("report id is required")
	}

	location, err := a.store.Upload(ctx, a.Key(reportID), bytes.NewReader(body), "application/json")
	if err != nil {
		return "", err
	}

	a.log.Info().
		Str("report_id", reportID).
		Str("location", location).
		Int("bytes", len(body)).
		Msg("Report archived")

	return location, nil
}

// List returns archived reports, newest first
func (a *ReportArchiver) List(ctx context.Context) ([]ArchivedReport, error) {
	objects, err := a.store.List(ctx, a.prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list archived reports: %w", err)
	}

	now := a.now()
	reports := make([]ArchivedReport, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		id := strings.TrimSuffix(strings.TrimPrefix(obj.Key, a.prefix), ".json")
		if id == "" || strings.Contains(id, "/") {
			continue
		}

		reports = append(reports, ArchivedReport{
			ReportID:  id,
			Key:       obj.Key,
			SizeBytes: obj.Size,
			Timestamp: obj.LastModified,
			AgeHours:  int64(now.Sub(obj.LastModified).Hours()),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Timestamp.After(reports[j].Timestamp)
	})

	return reports, nil
}

// Rotate deletes archived reports older than retentionDays and returns how
// many were removed. The newest few are always kept; 0 disables rotation.
func (a *ReportArchiver) Rotate(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	reports, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(reports) <= minArchivesToKeep {
		a.log.Debug().Int("count", len(reports)).Msg("Too few archived reports to rotate")
		return 0, nil
	}

	cutoff := a.now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, report := range reports[minArchivesToKeep:] {
		if !report.Timestamp.Before(cutoff) {
			continue
		}
		if err := a.store.Delete(ctx, report.Key); err != nil {
			a.log.Error().Err(err).Str("key", report.Key).Msg("Failed to delete archived report")
			continue
		}
		deleted++
	}

	a.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(reports)-deleted).
		Msg("Archive rotation completed")

	return deleted, nil
}

// ArchiveRotationJob applies the retention policy on a schedule
type ArchiveRotationJob struct {
	archiver      *ReportArchiver
	retentionDays int
	log           zerolog.Logger
}

// NewArchiveRotationJob creates a new rotation job
func NewArchiveRotationJob(archiver *ReportArchiver, retentionDays int, log zerolog.Logger) *ArchiveRotationJob {
	return &ArchiveRotationJob{
		archiver:      archiver,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "archive_rotation").Logger(),
	}
}

// Run executes the rotation
func (j *ArchiveRotationJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	_, err := j.archiver.Rotate(ctx, j.retentionDays)
	return err
}

// Name returns the job name for scheduler
func (j *ArchiveRotationJob) Name() string {
	return "archive_rotation"
}
