// Package returns converts price histories into daily return series and
// derives the historical portfolio return path used for presentation.
package returns

import (
	"gonum.org/v1/gonum/floats"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/pkg/formulas"
)

// ComputeReturns turns a price table into simple daily returns. The first
// date has no predecessor and produces no row.
func ComputeReturns(prices domain.PriceTable) (domain.ReturnSeries, error) {
	if prices.Len() < 2 {
		return domain.ReturnSeries{}, &domain.InsufficientDataError{Op: "returns", Have: prices.Len(), Need: 2}
	}

	instruments := prices.Instruments()
	dates := prices.Dates()

	rows := make([][]float64, prices.Len()-1)
	for i := range rows {
		rows[i] = make([]float64, len(instruments))
	}
	for col := range instruments {
		for i, r := range formulas.CalculateReturns(prices.Column(col)) {
			rows[i][col] = r
		}
	}

	return domain.NewReturnSeries(instruments, dates[1:], rows)
}

// PortfolioDailyReturns combines each return row with the weights (r_t . w).
func PortfolioDailyReturns(series domain.ReturnSeries, weights domain.WeightVector) ([]float64, error) {
	if err := weights.Validate(series.Width()); err != nil {
		return nil, err
	}

	rows := series.Rows()
	daily := make([]float64, len(rows))
	for i, row := range rows {
		daily[i] = floats.Dot(row, weights)
	}
	return daily, nil
}

// CumulativeReturns compounds daily returns into a running prod(1+r) - 1 path.
func CumulativeReturns(daily []float64) []float64 {
	out := make([]float64, len(daily))
	growth := 1.0
	for i, r := range daily {
		growth *= 1 + r
		out[i] = growth - 1
	}
	return out
}
