package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/aristath/basket/internal/database"
)

// MaintenanceJob checks free disk space, then verifies, checkpoints and
// vacuums each database. Run weekly.
type MaintenanceJob struct {
	databases []*database.DB
	dataDir   string
	minFreeGB float64
	usage     func(path string) (*disk.UsageStat, error)
	log       zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job
func NewMaintenanceJob(dataDir string, minFreeGB float64, log zerolog.Logger, databases ...*database.DB) *MaintenanceJob {
	return &MaintenanceJob{
		databases: databases,
		dataDir:   dataDir,
		minFreeGB: minFreeGB,
		usage:     disk.Usage,
		log:       log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name for scheduler
func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

// Run executes the maintenance job
func (j *MaintenanceJob) Run() error {
	j.log.Info().Msg("Starting maintenance")
	startTime := time.Now()

	// VACUUM needs room for a full copy of the database
	if err := j.checkDiskSpace(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	for _, db := range j.databases {
		if db == nil {
			continue
		}

		if err := db.HealthCheck(ctx); err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("Integrity check failed, skipping VACUUM")
			continue
		}

		if _, err := db.Checkpoint(ctx, database.CheckpointTruncate); err != nil {
			j.log.Warn().Err(err).Str("database", db.Name()).Msg("WAL checkpoint failed")
		}

		before, after, err := db.Vacuum(ctx)
		if err != nil {
			j.log.Error().Err(err).Str("database", db.Name()).Msg("VACUUM failed")
			continue
		}
		j.log.Info().
			Str("database", db.Name()).
			Float64("size_before_mb", float64(before)/1024/1024).
			Float64("size_after_mb", float64(after)/1024/1024).
			Msg("VACUUM completed")
	}

	j.log.Info().
		Dur("duration", time.Since(startTime)).
		Msg("Maintenance completed")

	return nil
}

func (j *MaintenanceJob) checkDiskSpace() error {
	stat, err := j.usage(j.dataDir)
	if err != nil {
		return fmt.Errorf("failed to stat filesystem: %w", err)
	}

	availableGB := float64(stat.Free) / 1e9
	j.log.Debug().Float64("available_gb", availableGB).Msg("Disk space check")

	if availableGB < j.minFreeGB {
		j.log.Error().
			Float64("available_gb", availableGB).
			Float64("required_gb", j.minFreeGB).
			Msg("Insufficient disk space, skipping maintenance")
		return fmt.Errorf("only %.2f GB free, need %.2f GB", availableGB, j.minFreeGB)
	}

	return nil
}
