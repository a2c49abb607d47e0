package scheduler

import (
	"context"
	"time"

	"github.com/aristath/basket/internal/database"
	"github.com/rs/zerolog"
)

// walWarnFrames is the WAL size above which a checkpoint lag is reported
const walWarnFrames = 1000

// WALCheckpointJob runs a passive WAL checkpoint on each database and
// reports when the log keeps growing.
type WALCheckpointJob struct {
	databases []*database.DB
	log       zerolog.Logger
}

// NewWALCheckpointJob creates a checkpoint job over the given databases.
// Nil entries are skipped.
func NewWALCheckpointJob(log zerolog.Logger, databases ...*database.DB) *WALCheckpointJob {
	return &WALCheckpointJob{
		databases: databases,
		log:       log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Name returns the job name
func (j *WALCheckpointJob) Name() string {
	return "wal_checkpoint"
}

// Run executes the checkpoint
func (j *WALCheckpointJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	checked := 0
	for _, db := range j.databases {
		if db == nil {
			continue
		}

		res, err := db.Checkpoint(ctx, database.CheckpointPassive)
		if err != nil {
			j.log.Warn().
				Err(err).
				Str("database", db.Name()).
				Msg("Failed to checkpoint WAL")
			continue
		}

		if res.LogFrames > walWarnFrames {
			j.log.Warn().
				Str("database", db.Name()).
				Int("wal_frames", res.LogFrames).
				Int("checkpointed", res.Checkpointed).
				Bool("busy", res.Busy).
				Msg("WAL file is large, checkpoint is lagging")
		} else {
			j.log.Debug().
				Str("database", db.Name()).
				Int("wal_frames", res.LogFrames).
				Msg("WAL checkpoint OK")
		}

		checked++
	}

	j.log.Info().Int("checked", checked).Msg("WAL checkpoint completed")
	return nil
}
