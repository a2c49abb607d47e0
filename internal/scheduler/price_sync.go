package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/basket/internal/modules/prices"
	"github.com/rs/zerolog"
)

// PriceSyncer refreshes every tracked instrument
type PriceSyncer interface {
	SyncTracked(ctx context.Context, lookbackDays int) (*prices.SyncResult, error)
}

// SyncRecorder receives per-instrument sync outcomes
type SyncRecorder interface {
	RecordPriceSync(success bool, rows int)
}

// PriceSyncJob pulls recent daily prices for every instrument already in
// the history database.
type PriceSyncJob struct {
	syncer       PriceSyncer
	recorder     SyncRecorder
	lookbackDays int
	timeout      time.Duration
	log          zerolog.Logger
}

// NewPriceSyncJob creates a price sync job. recorder may be nil.
func NewPriceSyncJob(syncer PriceSyncer, recorder SyncRecorder, lookbackDays int, log zerolog.Logger) *PriceSyncJob {
	return &PriceSyncJob{
		syncer:       syncer,
		recorder:     recorder,
		lookbackDays: lookbackDays,
		timeout:      30 * time.Minute,
		log:          log.With().Str("job", "price_sync").Logger(),
	}
}

// Name returns the job name
func (j *PriceSyncJob) Name() string {
	return "price_sync"
}

// Run executes the sync. Individual instrument failures are counted and
// logged; the job only fails when nothing could be synced.
func (j *PriceSyncJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	result, err := j.syncer.SyncTracked(ctx, j.lookbackDays)
	if err != nil {
		return fmt.Errorf("sync tracked instruments: %w", err)
	}

	rows := 0
	for _, n := range result.Synced {
		rows += n
		if j.recorder != nil {
			j.recorder.RecordPriceSync(true, n)
		}
	}
	for inst, err := range result.Failed {
		j.log.Warn().Err(err).Str("instrument", inst).Msg("Price sync failed")
		if j.recorder != nil {
			j.recorder.RecordPriceSync(false, 0)
		}
	}

	j.log.Info().
		Int("synced", len(result.Synced)).
		Int("failed", len(result.Failed)).
		Int("rows", rows).
		Msg("Price sync completed")

	if len(result.Synced) == 0 && len(result.Failed) > 0 {
		return fmt.Errorf("all %d instruments failed to sync", len(result.Failed))
	}
	return nil
}
