package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/basket/internal/domain"
)

func linearResult() domain.SimulationResult {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(100-i) / 100
	}
	return domain.NewSimulationResult(63, values)
}

func TestSummarize(t *testing.T) {
	band, err := DefaultBand(linearResult())
	require.NoError(t, err)

	assert.InDelta(t, 0.0595, band.Lower, 1e-12)
	assert.InDelta(t, 0.505, band.Median, 1e-12)
	assert.InDelta(t, 0.9505, band.Upper, 1e-12)
	assert.Equal(t, 5.0, band.LowerPercentile)
	assert.Equal(t, 95.0, band.UpperPercentile)

	wide, err := Summarize(linearResult(), 0, 100)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, wide.Lower, 1e-12)
	assert.InDelta(t, 1.00, wide.Upper, 1e-12)
}

func TestSummarizeEvenTrialCount(t *testing.T) {
	band, err := DefaultBand(domain.NewSimulationResult(21, []float64{4, 1, 3, 2}))
	require.NoError(t, err)
	assert.InDelta(t, 1.15, band.Lower, 1e-12)
	assert.InDelta(t, 2.5, band.Median, 1e-12)
	assert.InDelta(t, 3.85, band.Upper, 1e-12)

	values := make([]float64, 500)
	for i := range values {
		values[i] = float64(499 - i)
	}
	band, err = DefaultBand(domain.NewSimulationResult(63, values))
	require.NoError(t, err)
	assert.InDelta(t, 24.95, band.Lower, 1e-9)
	assert.InDelta(t, 249.5, band.Median, 1e-9)
	assert.InDelta(t, 474.05, band.Upper, 1e-9)
}

func TestSummarizeErrors(t *testing.T) {
	_, err := DefaultBand(domain.NewSimulationResult(63, nil))
	var insufficient *domain.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)

	_, err = DefaultBand(domain.NewSimulationResult(0, []float64{0.1}))
	assert.ErrorAs(t, err, &insufficient)

	for _, p := range [][2]float64{{60, 95}, {5, 40}, {-1, 95}, {5, 101}} {
		_, err = Summarize(linearResult(), p[0], p[1])
		var invalid *domain.InvalidRequestError
		assert.ErrorAs(t, err, &invalid, "percentiles %v", p)
	}
}

func TestAssessRisk(t *testing.T) {
	values := []float64{-0.2, -0.1, 0.0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3, 0.35}
	risk, err := AssessRisk(domain.NewSimulationResult(10, values))
	require.NoError(t, err)

	assert.InDelta(t, 0.11, risk.Mean, 1e-12)
	assert.Equal(t, -0.2, risk.Worst)
	assert.Equal(t, 0.35, risk.Best)
	assert.Equal(t, 0.2, risk.ProbabilityOfLoss)
	assert.Equal(t, -0.2, risk.CVaR95)
	assert.LessOrEqual(t, risk.CVaR95, risk.VaR95)

	_, err = AssessRisk(domain.NewSimulationResult(10, nil))
	assert.Error(t, err)
}
