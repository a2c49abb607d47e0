package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/basket/internal/clients/yahoo"
	"github.com/aristath/basket/internal/config"
	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/prices"
)

func newSyncCommand(newLogger func(*cobra.Command) zerolog.Logger) *cobra.Command {
	var start, end string

	cmd := &cobra.Command{
		Use:   "sync [instrument...]",
		Short: "Download daily prices into the local history database",
		Long: `Fetches daily prices from Yahoo Finance and stores them in history.db.

Without arguments every instrument already in the database is refreshed.

Example:
  basket sync AAPL GLD TLT --start 2015-01-01
  basket sync`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, start, end, newLogger(cmd))
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (default five years ago)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (default today)")

	return cmd
}

func runSync(cmd *cobra.Command, instruments []string, startFlag, endFlag string, log zerolog.Logger) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

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

	client := yahoo.NewClient(yahoo.Config{
		BaseURL:       cfg.Prices.YahooBaseURL,
		RatePerSecond: cfg.Prices.YahooRatePerSecond,
	}, log)
	svc := prices.NewService(prices.NewHistoryDB(db.Conn(), log), client, nil, log)
	out := cmd.OutOrStdout()

	if len(instruments) == 0 {
		result, err := svc.SyncTracked(ctx, cfg.Prices.SyncLookbackDays)
		if err != nil {
			return err
		}
		for inst, n := range result.Synced {
			fmt.Fprintf(out, "%s\t%d\n", inst, n)
		}
		for inst, err := range result.Failed {
			fmt.Fprintf(out, "%s\tfailed: %v\n", inst, err)
		}
		if len(result.Failed) > 0 {
			return fmt.Errorf("%d instruments failed to sync", len(result.Failed))
		}
		return nil
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	start, err := parseDay(startFlag, today.AddDate(-5, 0, 0))
	if err != nil {
		return err
	}
	end, err := parseDay(endFlag, today)
	if err != nil {
		return err
	}

	for _, inst := range instruments {
		n, err := svc.Sync(ctx, inst, start, end)
		if err != nil {
			return fmt.Errorf("sync %s: %w", inst, err)
		}
		fmt.Fprintf(out, "%s\t%d\n", inst, n)
	}
	return nil
}

func parseDay(value string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}
