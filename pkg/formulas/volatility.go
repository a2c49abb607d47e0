package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RollingVolatility returns the annualized rolling volatility of daily
// returns over the given window. The first window-1 entries that talib leaves
// at zero are dropped, so the result has len(returns)-window+1 values.
// talib computes the population standard deviation.
func RollingVolatility(returns []float64, window int) []float64 {
	if window < 2 || len(returns) < window {
		return []float64{}
	}

	// Use go-talib for the rolling standard deviation
	std := talib.StdDev(returns, window, 1)

	out := make([]float64, 0, len(returns)-window+1)
	for _, s := range std[window-1:] {
		out = append(out, s*math.Sqrt(TradingDaysPerYear))
	}
	return out
}
