package analysis

import (
	"context"

	"github.com/aristath/basket/internal/events"
	"github.com/rs/zerolog"
)

// ExpiryRecorder receives cleanup counts
type ExpiryRecorder interface {
	RecordReportsExpired(n int64)
}

// CleanupJob removes expired reports from the cache.
// It should be scheduled to run daily.
type CleanupJob struct {
	repo         *ReportRepository
	eventManager *events.Manager
	recorder     ExpiryRecorder
	log          zerolog.Logger
}

// NewCleanupJob creates a new report cleanup job. eventManager and recorder
// may be nil.
func NewCleanupJob(repo *ReportRepository, eventManager *events.Manager, recorder ExpiryRecorder, log zerolog.Logger) *CleanupJob {
	return &CleanupJob{
		repo:         repo,
		eventManager: eventManager,
		recorder:     recorder,
		log:          log.With().Str("job", "report_cleanup").Logger(),
	}
}

// Run executes the cleanup job
func (j *CleanupJob) Run() error {
	deleted, err := j.repo.DeleteExpired(context.Background())
	if err != nil {
		j.log.Error().Err(err).Msg("Failed to delete expired reports")
		return err
	}

	if j.recorder != nil {
		j.recorder.RecordReportsExpired(deleted)
	}

	if deleted > 0 {
		j.log.Info().Int64("deleted", deleted).Msg("Cleaned up expired reports")
		if j.eventManager != nil {
			j.eventManager.EmitTyped("analysis", &events.ReportsExpiredData{Deleted: deleted})
		}
	}

	return nil
}

// Name returns the job name for scheduling and logging
func (j *CleanupJob) Name() string {
	return "report_cleanup"
}
