package di

import (
	"fmt"

	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/aristath/basket/internal/reliability"
	"github.com/aristath/basket/internal/scheduler"
	"github.com/rs/zerolog"
)

// walCheckpointSchedule runs hourly at minute 15
const walCheckpointSchedule = "0 15 * * * *"

// RegisterJobs builds every background job and registers the ones with a
// schedule on sched. sched may be nil to only build the jobs.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	jobs := &JobInstances{
		PriceSync: scheduler.NewPriceSyncJob(
			container.PriceService,
			container.Metrics,
			cfg.Prices.SyncLookbackDays,
			log,
		),
		ReportCleanup: analysis.NewCleanupJob(
			container.ReportRepo,
			container.EventManager,
			container.Metrics,
			log,
		),
		WALCheckpoint: scheduler.NewWALCheckpointJob(log, container.HistoryDB, container.CacheDB),
		Maintenance: reliability.NewMaintenanceJob(
			cfg.DataDir,
			cfg.MinFreeDiskGB,
			log,
			container.HistoryDB,
			container.CacheDB,
		),
	}

	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.Prices.SyncSchedule, jobs.PriceSync},
		{cfg.Reports.CleanupSchedule, jobs.ReportCleanup},
		{walCheckpointSchedule, jobs.WALCheckpoint},
		{cfg.MaintenanceSchedule, jobs.Maintenance},
	}

	if container.ReportArchiver != nil {
		jobs.ArchiveRotation = reliability.NewArchiveRotationJob(container.ReportArchiver, cfg.Archive.RetentionDays, log)
		schedules = append(schedules, struct {
			spec string
			job  scheduler.Job
		}{cfg.Archive.RotateSchedule, jobs.ArchiveRotation})
	}

	if sched == nil {
		return jobs, nil
	}
	if container.Metrics != nil {
		sched.SetRecorder(container.Metrics)
	}

	for _, s := range schedules {
		if s.spec == "" {
			sched.Register(s.job)
			continue
		}
		if err := sched.AddJob(s.spec, s.job); err != nil {
			return nil, fmt.Errorf("failed to schedule %s: %w", s.job.Name(), err)
		}
	}

	return jobs, nil
}
