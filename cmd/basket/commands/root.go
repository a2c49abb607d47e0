// Package commands implements the basket command line interface.
package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/basket/pkg/logger"
)

// Execute builds the command tree and runs it
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand returns the root command with every subcommand attached
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "basket",
		Short: "Portfolio risk/return analysis and Monte Carlo forecasts",
		Long: `basket analyzes a weighted basket of instruments from daily closing prices.

It reports annualized return, volatility and Sharpe ratio, pairwise
correlations, historical drawdown and a Monte Carlo return band.

Examples:
  basket analyze --csv prices.csv --instruments AAPL,GLD --weights 0.6,0.4 --start 2020-01-01 --end 2024-12-31
  basket sync AAPL GLD --start 2015-01-01
  basket analyze --instruments AAPL,GLD --weights 0.6,0.4 --start 2020-01-01 --end 2024-12-31 --seed 42`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	newLogger := func(cmd *cobra.Command) zerolog.Logger {
		level := "warn"
		if verbose {
			level = "debug"
		}
		return logger.New(logger.Config{
			Level:  level,
			Pretty: true,
			Output: cmd.ErrOrStderr(),
		})
	}

	root.AddCommand(newAnalyzeCommand(newLogger))
	root.AddCommand(newSyncCommand(newLogger))

	return root
}
