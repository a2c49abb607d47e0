// Package metrics computes annualized portfolio statistics from a daily
// return series and allocation weights.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/pkg/formulas"
)

// TradingDaysPerYear scales daily statistics to a yearly basis.
const TradingDaysPerYear = formulas.TradingDaysPerYear

// Moments are the per-instrument daily means and the sample covariance matrix.
type Moments struct {
	Means      []float64
	Covariance *mat.SymDense
}

// ComputeMoments returns the daily mean vector and sample covariance (n-1).
func ComputeMoments(returns domain.ReturnSeries, op string) (Moments, error) {
	if returns.Len() < 2 {
		return Moments{}, &domain.InsufficientDataError{Op: op, Have: returns.Len(), Need: 2}
	}

	means := make([]float64, returns.Width())
	for i := range means {
		means[i] = stat.Mean(returns.Column(i), nil)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, returns.Dense(), nil)

	return Moments{Means: means, Covariance: &cov}, nil
}

// PortfolioMean returns mu . w.
func (m Moments) PortfolioMean(weights domain.WeightVector) float64 {
	return floats.Dot(m.Means, weights)
}

// PortfolioVariance returns w' Sigma w. A degenerate portfolio leaves only
// rounding noise (possibly negative) and reports exactly zero.
func (m Moments) PortfolioVariance(weights domain.WeightVector) float64 {
	w := weights.Vec()
	v := mat.Inner(w, m.Covariance, w)
	if v <= 0 || math.IsNaN(v) || formulas.NegligibleSpread(math.Sqrt(v), m.PortfolioMean(weights)) {
		return 0
	}
	return v
}

// ComputeMetrics returns annualized return, annualized standard deviation and
// the Sharpe ratio (return / std, no risk-free rate). A zero standard
// deviation makes the Sharpe ratio undefined and is reported as an error.
func ComputeMetrics(returns domain.ReturnSeries, weights domain.WeightVector) (domain.PortfolioStatistics, error) {
	if err := weights.Validate(returns.Width()); err != nil {
		return domain.PortfolioStatistics{}, err
	}

	moments, err := ComputeMoments(returns, "metrics")
	if err != nil {
		return domain.PortfolioStatistics{}, err
	}

	annualReturn := moments.PortfolioMean(weights) * TradingDaysPerYear
	annualVariance := moments.PortfolioVariance(weights) * TradingDaysPerYear
	annualStdDev := math.Sqrt(annualVariance)

	if annualStdDev == 0 {
		return domain.PortfolioStatistics{}, &domain.UndefinedRatioError{
			Ratio:  "sharpe",
			Reason: "portfolio standard deviation is zero",
		}
	}

	return domain.PortfolioStatistics{
		AnnualizedReturn: annualReturn,
		AnnualizedStdDev: annualStdDev,
		SharpeRatio:      annualReturn / annualStdDev,
	}, nil
}

// DailyMoments returns the non-annualized portfolio mean and volatility
// (mu . w, sqrt(w' Sigma w)).
func DailyMoments(returns domain.ReturnSeries, weights domain.WeightVector) (mean, vol float64, err error) {
	if err := weights.Validate(returns.Width()); err != nil {
		return 0, 0, err
	}

	moments, err := ComputeMoments(returns, "daily moments")
	if err != nil {
		return 0, 0, err
	}

	return moments.PortfolioMean(weights), math.Sqrt(moments.PortfolioVariance(weights)), nil
}
