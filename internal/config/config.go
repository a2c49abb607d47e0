// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for history.db and cache.db (always absolute)
	LogLevel string
	LogFile  string
	Port     int
	DevMode  bool

	Forecast ForecastConfig
	Prices   PricesConfig
	Reports  ReportsConfig
	Archive  *ArchiveConfig // nil when no bucket is configured

	MaintenanceSchedule string // weekly VACUUM and disk check
	MinFreeDiskGB       float64
}

// ForecastConfig holds Monte Carlo defaults applied when a request omits them
type ForecastConfig struct {
	HorizonDays int
	Trials      int
	Workers     int // 0 = one per CPU
}

// PricesConfig controls the market-data provider and background sync
type PricesConfig struct {
	YahooBaseURL       string // empty for the public endpoint
	YahooRatePerSecond float64
	SyncSchedule       string // cron spec with seconds, empty disables the job
	SyncLookbackDays   int
}

// ReportsConfig controls the analysis report cache
type ReportsConfig struct {
	TTL             time.Duration
	CleanupSchedule string
}

// ArchiveConfig holds S3-compatible (R2) report archive settings
type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string // empty for AWS, account endpoint for R2
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	RetentionDays   int // 0 keeps archived reports forever
	RotateSchedule  string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("BASKET_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		Port:     getEnvAsInt("BASKET_PORT", 8010),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
		Forecast: ForecastConfig{
			HorizonDays: getEnvAsInt("FORECAST_HORIZON_DAYS", 63),
			Trials:      getEnvAsInt("FORECAST_TRIALS", 500),
			Workers:     getEnvAsInt("FORECAST_WORKERS", 0),
		},
		Prices: PricesConfig{
			YahooBaseURL:       getEnv("YAHOO_BASE_URL", ""),
			YahooRatePerSecond: getEnvAsFloat("YAHOO_RATE_PER_SEC", 2),
			SyncSchedule:       getEnv("PRICE_SYNC_SCHEDULE", "0 30 22 * * MON-FRI"),
			SyncLookbackDays:   getEnvAsInt("PRICE_SYNC_LOOKBACK_DAYS", 10),
		},
		Reports: ReportsConfig{
			TTL:             time.Duration(getEnvAsInt("REPORT_TTL_HOURS", 24)) * time.Hour,
			CleanupSchedule: getEnv("REPORT_CLEANUP_SCHEDULE", "0 0 3 * * *"),
		},
		Archive:             loadArchiveConfig(),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 0 4 * * SUN"),
		MinFreeDiskGB:       getEnvAsFloat("MIN_FREE_DISK_GB", 0.5),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Forecast.HorizonDays < 1 {
		return fmt.Errorf("FORECAST_HORIZON_DAYS must be at least 1, got %d", c.Forecast.HorizonDays)
	}
	if c.Forecast.Trials < 1 {
		return fmt.Errorf("FORECAST_TRIALS must be at least 1, got %d", c.Forecast.Trials)
	}
	if c.Forecast.Workers < 0 {
		return fmt.Errorf("FORECAST_WORKERS cannot be negative, got %d", c.Forecast.Workers)
	}
	if c.Prices.YahooRatePerSecond <= 0 {
		return fmt.Errorf("YAHOO_RATE_PER_SEC must be positive, got %v", c.Prices.YahooRatePerSecond)
	}
	if c.Reports.TTL <= 0 {
		return fmt.Errorf("REPORT_TTL_HOURS must be positive")
	}
	if c.Archive != nil && c.Archive.RetentionDays < 0 {
		return fmt.Errorf("ARCHIVE_RETENTION_DAYS cannot be negative, got %d", c.Archive.RetentionDays)
	}
	return nil
}

// HistoryDBPath returns the price history database location
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// CacheDBPath returns the report cache database location
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// loadArchiveConfig returns nil unless ARCHIVE_BUCKET is set
func loadArchiveConfig() *ArchiveConfig {
	bucket := getEnv("ARCHIVE_BUCKET", "")
	if bucket == "" {
		return nil
	}
	return &ArchiveConfig{
		Bucket:          bucket,
		Region:          getEnv("ARCHIVE_REGION", "auto"),
		Endpoint:        getEnv("ARCHIVE_ENDPOINT", ""),
		AccessKeyID:     getEnv("ARCHIVE_ACCESS_KEY_ID", ""),
		SecretAccessKey: getEnv("ARCHIVE_SECRET_ACCESS_KEY", ""),
		Prefix:          getEnv("ARCHIVE_PREFIX", "reports/"),
		RetentionDays:   getEnvAsInt("ARCHIVE_RETENTION_DAYS", 90),
		RotateSchedule:  getEnv("ARCHIVE_ROTATE_SCHEDULE", "0 30 4 * * *"),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
