package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name      string
		prices    []float64
		want      []float64
		tolerance float64
	}{
		{
			name:   "empty prices",
			prices: []float64{},
			want:   []float64{},
		},
		{
			name:   "single price",
			prices: []float64{100.0},
			want:   []float64{},
		},
		{
			name:      "two prices positive return",
			prices:    []float64{100.0, 110.0},
			want:      []float64{0.10},
			tolerance: 0.0001,
		},
		{
			name:      "three prices sequence",
			prices:    []float64{100.0, 110.0, 105.0},
			want:      []float64{0.10, -0.04545},
			tolerance: 0.0001,
		},
		{
			name:   "steady prices",
			prices: []float64{100.0, 100.0, 100.0},
			want:   []float64{0.0, 0.0},
		},
		{
			name:      "volatile sequence",
			prices:    []float64{100.0, 120.0, 90.0, 108.0},
			want:      []float64{0.20, -0.25, 0.20},
			tolerance: 0.0001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateReturns(tt.prices)
			if len(result) != len(tt.want) {
				t.Fatalf("CalculateReturns() length = %v, want %v", len(result), len(tt.want))
			}
			for i := range result {
				if math.Abs(result[i]-tt.want[i]) > tt.tolerance {
					t.Errorf("CalculateReturns()[%d] = %v, want %v (±%v)", i, result[i], tt.want[i], tt.tolerance)
				}
			}
		})
	}
}

func TestCompoundReturn(t *testing.T) {
	assert.InDelta(t, 0.21, CompoundReturn([]float64{0.1, 0.1}), 1e-12)
	assert.Equal(t, 0.0, CompoundReturn(nil))
	assert.InDelta(t, -0.01, CompoundReturn([]float64{0.1, -0.1}), 1e-12)
}

func TestPercentile(t *testing.T) {
	data := make([]float64, 100)
	for i := range data {
		// reverse order to check the input is sorted internally
		data[i] = float64(100 - i)
	}

	assert.InDelta(t, 5.95, Percentile(data, 5), 1e-9)
	assert.InDelta(t, 50.5, Percentile(data, 50), 1e-9)
	assert.InDelta(t, 95.05, Percentile(data, 95), 1e-9)
	assert.Equal(t, 100.0, data[0], "input must not be reordered")

	assert.True(t, math.IsNaN(Percentile(nil, 50)))
	assert.Equal(t, 7.0, Percentile([]float64{7, 7, 7}, 5))
}

func TestPercentileInterpolatesBetweenRanks(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		p    float64
		want float64
	}{
		{name: "even count median", data: []float64{4, 1, 3, 2}, p: 50, want: 2.5},
		{name: "lower tail", data: []float64{1, 2, 3, 4}, p: 5, want: 1.15},
		{name: "upper tail", data: []float64{1, 2, 3, 4}, p: 95, want: 3.85},
		{name: "minimum", data: []float64{1, 2, 3, 4}, p: 0, want: 1},
		{name: "maximum", data: []float64{1, 2, 3, 4}, p: 100, want: 4},
		{name: "single value", data: []float64{0.3}, p: 95, want: 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(tt.data, tt.p), 1e-12)
		})
	}
}

func TestNegligibleSpread(t *testing.T) {
	assert.True(t, NegligibleSpread(0, 0))
	assert.True(t, NegligibleSpread(1.5e-17, 0.01))
	assert.True(t, NegligibleSpread(5e-10, 2520))
	assert.False(t, NegligibleSpread(1e-6, 0.01))
	assert.False(t, NegligibleSpread(0.003, 0))
}

func TestMeanAndStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{1}))
	assert.InDelta(t, 1.0, StdDev([]float64{1, 2, 3}), 1e-12)
}
