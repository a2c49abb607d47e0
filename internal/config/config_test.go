package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BASKET_DATA_DIR", dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, 63, cfg.Forecast.HorizonDays)
	assert.Equal(t, 500, cfg.Forecast.Trials)
	assert.Equal(t, 24*time.Hour, cfg.Reports.TTL)
	assert.Nil(t, cfg.Archive)
	assert.Equal(t, filepath.Join(dir, "history.db"), cfg.HistoryDBPath())
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CacheDBPath())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BASKET_DATA_DIR", t.TempDir())
	t.Setenv("BASKET_PORT", "9100")
	t.Setenv("FORECAST_TRIALS", "2000")
	t.Setenv("FORECAST_WORKERS", "4")
	t.Setenv("YAHOO_RATE_PER_SEC", "0.5")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("ARCHIVE_BUCKET", "reports")
	t.Setenv("ARCHIVE_ENDPOINT", "https://example.r2.cloudflarestorage.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 2000, cfg.Forecast.Trials)
	assert.Equal(t, 4, cfg.Forecast.Workers)
	assert.Equal(t, 0.5, cfg.Prices.YahooRatePerSecond)
	assert.True(t, cfg.DevMode)
	require.NotNil(t, cfg.Archive)
	assert.Equal(t, "reports", cfg.Archive.Bucket)
	assert.Equal(t, "auto", cfg.Archive.Region)
	assert.Equal(t, "reports/", cfg.Archive.Prefix)
	assert.Equal(t, 90, cfg.Archive.RetentionDays)
	assert.Equal(t, "0 0 4 * * SUN", cfg.MaintenanceSchedule)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "zero trials", key: "FORECAST_TRIALS", val: "0"},
		{name: "zero horizon", key: "FORECAST_HORIZON_DAYS", val: "0"},
		{name: "negative workers", key: "FORECAST_WORKERS", val: "-1"},
		{name: "port out of range", key: "BASKET_PORT", val: "70000"},
		{name: "negative retention", key: "ARCHIVE_RETENTION_DAYS", val: "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BASKET_DATA_DIR", t.TempDir())
			t.Setenv("ARCHIVE_BUCKET", "reports")
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
