package di

import (
	"context"
	"fmt"

	"github.com/aristath/basket/internal/clients/yahoo"
	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/events"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/aristath/basket/internal/modules/prices"
	"github.com/aristath/basket/internal/monitoring"
	"github.com/aristath/basket/internal/reliability"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients, repositories and services on top of
// an initialized container
func InitializeServices(ctx context.Context, container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)
	container.Metrics = monitoring.NewMetrics()

	container.YahooClient = yahoo.NewClient(yahoo.Config{
		BaseURL:       cfg.Prices.YahooBaseURL,
		RatePerSecond: cfg.Prices.YahooRatePerSecond,
	}, log)

	container.HistoryDBClient = prices.NewHistoryDB(container.HistoryDB.Conn(), log)
	container.ReportRepo = analysis.NewReportRepository(container.CacheDB.Conn())

	container.PriceService = prices.NewService(
		container.HistoryDBClient,
		container.YahooClient,
		container.EventManager,
		log,
	)

	deps := analysis.Dependencies{
		Prices:  container.PriceService,
		Reports: container.ReportRepo,
		Events:  container.EventManager,
		Metrics: container.Metrics,
	}

	if cfg.Archive != nil {
		r2, err := reliability.NewR2Client(ctx, cfg.Archive, log)
		if err != nil {
			return fmt.Errorf("failed to create archive client: %w", err)
		}
		container.R2Client = r2
		container.ReportArchiver = reliability.NewReportArchiver(r2, cfg.Archive.Prefix, log)
		deps.Archiver = container.ReportArchiver
		log.Info().Str("bucket", r2.Bucket()).Msg("Report archive enabled")
	}

	container.AnalysisService = analysis.NewService(deps, analysis.Defaults{
		HorizonDays: cfg.Forecast.HorizonDays,
		Trials:      cfg.Forecast.Trials,
		Workers:     cfg.Forecast.Workers,
	}, cfg.Reports.TTL, log)

	return nil
}
