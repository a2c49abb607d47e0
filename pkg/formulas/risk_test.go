package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name       string
		cumulative []float64
		expected   float64
	}{
		{name: "empty", cumulative: nil, expected: 0},
		{name: "only gains", cumulative: []float64{0.01, 0.02, 0.05}, expected: 0},
		{name: "drop from start", cumulative: []float64{-0.1, -0.2, -0.15}, expected: 0.2},
		{name: "drop from later peak", cumulative: []float64{0.0, 0.2, -0.04, 0.1}, expected: 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, MaxDrawdown(tt.cumulative), 1e-9)
		})
	}
}

func TestCalculateCVaR(t *testing.T) {
	outcomes := []float64{-0.10, -0.05, 0.0, 0.02, 0.03, 0.04, 0.05, 0.06, 0.07, 0.08}

	// worst 10% of 10 outcomes is the single worst one
	assert.InDelta(t, -0.10, CalculateCVaR(outcomes, 0.90), 1e-12)
	// worst 20%
	assert.InDelta(t, -0.075, CalculateCVaR(outcomes, 0.80), 1e-12)

	assert.Equal(t, 0.0, CalculateCVaR(nil, 0.95))
	assert.Equal(t, 0.3, CalculateCVaR([]float64{0.3}, 0.95))
}

func TestCalculateVaR(t *testing.T) {
	outcomes := make([]float64, 100)
	for i := range outcomes {
		outcomes[i] = float64(i+1) / 100
	}
	assert.InDelta(t, 0.0595, CalculateVaR(outcomes, 0.95), 1e-9)
	assert.Equal(t, 0.0, CalculateVaR(nil, 0.95))
}

func TestProbabilityOfLoss(t *testing.T) {
	assert.Equal(t, 0.0, ProbabilityOfLoss(nil))
	assert.Equal(t, 0.5, ProbabilityOfLoss([]float64{-1, 1, 0, -0.1}))
}

func TestRollingVolatility(t *testing.T) {
	assert.Empty(t, RollingVolatility([]float64{0.01, 0.02}, 5))

	flat := make([]float64, 30)
	vol := RollingVolatility(flat, 21)
	assert.Len(t, vol, 10)
	for _, v := range vol {
		assert.InDelta(t, 0.0, v, 1e-12)
	}

	alternating := make([]float64, 21)
	for i := range alternating {
		if i%2 == 0 {
			alternating[i] = 0.01
		} else {
			alternating[i] = -0.01
		}
	}
	vol = RollingVolatility(alternating, 21)
	assert.Len(t, vol, 1)
	assert.Greater(t, vol[0], 0.0)
}
