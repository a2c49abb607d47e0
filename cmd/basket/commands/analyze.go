package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/aristath/basket/internal/modules/prices"
)

type analyzeOptions struct {
	csvPath     string
	instruments []string
	weights     []float64
	start       string
	end         string
	horizon     int
	trials      int
	workers     int
	seed        uint64
	lower       float64
	upper       float64
	outcomes    bool
	asJSON      bool
}

func newAnalyzeCommand(newLogger func(*cobra.Command) zerolog.Logger) *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a weighted portfolio",
		Long: `Computes statistics, correlations, history and a Monte Carlo forecast.

Prices come from a wide CSV file (--csv) with a "date" column followed by
one column per instrument, or from the local price history database.

Example:
  basket analyze --csv prices.csv --instruments AAPL,GLD --weights 0.6,0.4 \
    --start 2020-01-01 --end 2024-12-31 --trials 2000 --seed 7 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts, newLogger(cmd))
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.csvPath, "csv", "", "wide price CSV (default: local history database)")
	f.StringSliceVar(&opts.instruments, "instruments", nil, "comma separated instrument identifiers")
	f.Float64SliceVar(&opts.weights, "weights", nil, "comma separated weights, same order as instruments")
	f.StringVar(&opts.start, "start", "", "window start, YYYY-MM-DD")
	f.StringVar(&opts.end, "end", "", "window end, YYYY-MM-DD")
	f.IntVar(&opts.horizon, "horizon", 0, "forecast horizon in trading days (default from FORECAST_HORIZON_DAYS)")
	f.IntVar(&opts.trials, "trials", 0, "number of Monte Carlo trials (default from FORECAST_TRIALS)")
	f.IntVar(&opts.workers, "workers", 0, "simulation workers, 0 for one per CPU")
	f.Uint64Var(&opts.seed, "seed", 0, "random seed for a reproducible forecast")
	f.Float64Var(&opts.lower, "lower", 5, "lower percentile of the forecast band")
	f.Float64Var(&opts.upper, "upper", 95, "upper percentile of the forecast band")
	f.BoolVar(&opts.outcomes, "outcomes", false, "include every simulated outcome in the output")
	f.BoolVar(&opts.asJSON, "json", false, "print the full report as JSON")

	_ = cmd.MarkFlagRequired("instruments")
	_ = cmd.MarkFlagRequired("weights")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions, log zerolog.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	defaults := analysis.Defaults{Workers: opts.workers}

	var provider domain.PriceProvider
	if opts.csvPath != "" {
		file, err := os.Open(opts.csvPath)
		if err != nil {
			return fmt.Errorf("open csv: %w", err)
		}
		table, err := prices.ReadCSV(file)
		file.Close()
		if err != nil {
			return err
		}
		provider = domain.StaticPrices{Table: table}
	} else {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, err := database.New(database.Config{
			Path:    cfg.HistoryDBPath(),
			Profile: database.ProfileStandard,
			Name:    database.NameHistory,
		})
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return err
		}
		provider = prices.NewService(prices.NewHistoryDB(db.Conn(), log), nil, nil, log)
		defaults.HorizonDays = cfg.Forecast.HorizonDays
		defaults.Trials = cfg.Forecast.Trials
		if defaults.Workers == 0 {
			defaults.Workers = cfg.Forecast.Workers
		}
	}

	req := analysis.Request{
		Instruments: opts.instruments,
		Weights:     opts.weights,
		Start:       opts.start,
		End:         opts.end,
		Forecast: analysis.ForecastOptions{
			HorizonDays:     opts.horizon,
			Trials:          opts.trials,
			LowerPercentile: &opts.lower,
			UpperPercentile: &opts.upper,
			IncludeOutcomes: opts.outcomes,
		},
	}
	if cmd.Flags().Changed("seed") {
		req.Forecast.Seed = &opts.seed
	}

	svc := analysis.NewService(analysis.Dependencies{Prices: provider}, defaults, 0, log)
	report, err := svc.Analyze(ctx, req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	_, err = fmt.Fprintln(out, report.String())
	return err
}
