package formulas

import (
	"math"
	"sort"
)

// CalculateVaR returns the return at the (1-confidence) tail of the
// distribution, e.g. the 5th percentile for confidence 0.95. Losses are
// negative numbers.
func CalculateVaR(outcomes []float64, confidence float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	return Percentile(outcomes, (1-confidence)*100)
}

// CalculateCVaR calculates Conditional Value at Risk (CVaR) at the specified confidence level.
// CVaR is the mean of the worst ceil(n*(1-confidence)) outcomes.
func CalculateCVaR(outcomes []float64, confidence float64) float64 {
	if len(outcomes) == 0 {
		return 0.0
	}

	if len(outcomes) == 1 {
		return outcomes[0]
	}

	// Sort ascending (worst first)
	sorted := make([]float64, len(outcomes))
	copy(sorted, outcomes)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * (1.0 - confidence)))
	if tailCount == 0 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	sum := 0.0
	for _, r := range sorted[:tailCount] {
		sum += r
	}

	return sum / float64(tailCount)
}

// ProbabilityOfLoss returns the share of outcomes below zero.
func ProbabilityOfLoss(outcomes []float64) float64 {
	if len(outcomes) == 0 {
		return 0
	}
	losses := 0
	for _, o := range outcomes {
		if o < 0 {
			losses++
		}
	}
	return float64(losses) / float64(len(outcomes))
}
