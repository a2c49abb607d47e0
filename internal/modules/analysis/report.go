package analysis

import (
	"fmt"
	"time"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/correlation"
	"github.com/aristath/basket/internal/modules/forecast"
)

// RollingWindow is the rolling volatility window in trading days (one month).
const RollingWindow = 21

// Report is the full result of one analysis
type Report struct {
	ID               string                     `json:"id"`
	CreatedAt        time.Time                  `json:"created_at"`
	Start            string                     `json:"start"`
	End              string                     `json:"end"`
	Composition      []Holding                  `json:"composition"`
	Observations     int                        `json:"observations"`
	Statistics       domain.PortfolioStatistics `json:"statistics"`
	Correlation      CorrelationTable           `json:"correlation"`
	HighCorrelations []correlation.Pair         `json:"high_correlations"`
	History          History                    `json:"history"`
	Forecast         Forecast                   `json:"forecast"`
}

// Holding is one instrument's share of the portfolio
type Holding struct {
	Instrument string  `json:"instrument"`
	Weight     float64 `json:"weight"`
}

// CorrelationTable is the serializable form of a correlation matrix
type CorrelationTable struct {
	Instruments []string    `json:"instruments"`
	Values      [][]float64 `json:"values"`
}

// Matrix rebuilds the domain matrix
func (c CorrelationTable) Matrix() domain.CorrelationMatrix {
	return domain.NewCorrelationMatrix(c.Instruments, c.Values)
}

// History is the backward-looking presentation series. It is never a
// forecast input.
type History struct {
	Dates             []string  `json:"dates"`
	DailyReturns      []float64 `json:"daily_returns"`
	Cumulative        []float64 `json:"cumulative"`
	TotalReturn       float64   `json:"total_return"`
	MaxDrawdown       float64   `json:"max_drawdown"`
	RollingWindow     int       `json:"rolling_window"`
	RollingVolatility []float64 `json:"rolling_volatility"`
}

// Forecast is the Monte Carlo section of the report
type Forecast struct {
	HorizonDays int                 `json:"horizon_days"`
	Trials      int                 `json:"trials"`
	Seed        uint64              `json:"seed"`
	Model       forecast.Model      `json:"model"`
	Band        domain.ForecastBand `json:"band"`
	Risk        forecast.Risk       `json:"risk"`
	Outcomes    []float64           `json:"outcomes,omitempty"`
}

// String renders a one-line summary for CLI output
func (r *Report) String() string {
	return fmt.Sprintf("%s: return %.2f%%, volatility %.2f%%, sharpe %.2f, %d-day median %.2f%% [%.2f%%, %.2f%%]",
		r.ID,
		r.Statistics.AnnualizedReturn*100,
		r.Statistics.AnnualizedStdDev*100,
		r.Statistics.SharpeRatio,
		r.Forecast.HorizonDays,
		r.Forecast.Band.Median*100,
		r.Forecast.Band.Lower*100,
		r.Forecast.Band.Upper*100,
	)
}
