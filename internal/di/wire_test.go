package di

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/scheduler"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir: t.TempDir(),
		Forecast: config.ForecastConfig{
			HorizonDays: 21,
			Trials:      100,
		},
		Prices: config.PricesConfig{
			YahooRatePerSecond: 1,
			SyncSchedule:       "0 30 22 * * MON-FRI",
			SyncLookbackDays:   5,
		},
		Reports: config.ReportsConfig{
			TTL:             time.Hour,
			CleanupSchedule: "0 0 3 * * *",
		},
		MaintenanceSchedule: "",
		MinFreeDiskGB:       0.5,
	}
}

func TestWire(t *testing.T) {
	log := zerolog.Nop()
	sched := scheduler.New(log)

	container, jobs, err := Wire(context.Background(), testConfig(t), sched, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	assert.NotNil(t, container.HistoryDB)
	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.PriceService)
	assert.NotNil(t, container.AnalysisService)
	assert.NotNil(t, container.Metrics)
	assert.Nil(t, container.R2Client)
	assert.Nil(t, container.ReportArchiver)

	assert.Nil(t, jobs.ArchiveRotation)
	assert.Len(t, jobs.All(), 4)

	// Maintenance has no schedule and stays manual
	assert.Equal(t, []string{"price_sync", "report_cleanup", "wal_checkpoint"}, sched.Jobs())
	_, ok := sched.Lookup("maintenance")
	assert.True(t, ok)
	assert.Len(t, sched.Status(), 4)

	// Both schemas are applied
	_, err = container.HistoryDB.Conn().Exec("SELECT instrument FROM daily_prices LIMIT 1")
	assert.NoError(t, err)
	_, err = container.CacheDB.Conn().Exec("SELECT id FROM analysis_reports LIMIT 1")
	assert.NoError(t, err)

	require.NoError(t, jobs.ReportCleanup.Run())
}

func TestWireWithArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive = &config.ArchiveConfig{
		Bucket:          "reports",
		Region:          "auto",
		Endpoint:        "https://example.r2.cloudflarestorage.com",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "reports/",
		RetentionDays:   30,
		RotateSchedule:  "0 30 4 * * *",
	}

	container, jobs, err := Wire(context.Background(), cfg, nil, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	require.NotNil(t, container.ReportArchiver)
	assert.Equal(t, "reports", container.R2Client.Bucket())
	assert.Equal(t, "reports/abc.json", container.ReportArchiver.Key("abc"))
	require.NotNil(t, jobs.ArchiveRotation)
	assert.Len(t, jobs.All(), 5)
}

func TestWireRejectsBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Reports.CleanupSchedule = "whenever"

	_, _, err := Wire(context.Background(), cfg, scheduler.New(zerolog.Nop()), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_cleanup")
}
