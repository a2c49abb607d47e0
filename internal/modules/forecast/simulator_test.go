package forecast

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/basket/internal/domain"
)

func sampleSeries(t *testing.T) domain.ReturnSeries {
	t.Helper()
	rng := rand.New(rand.NewPCG(42, 42))
	rows := make([][]float64, 200)
	for i := range rows {
		rows[i] = []float64{
			0.0008 + rng.NormFloat64()*0.012,
			0.0002 + rng.NormFloat64()*0.008,
			0.0004 + rng.NormFloat64()*0.02,
		}
	}
	series, err := domain.NewReturnSeries([]string{"AAPL", "GLD", "TSLA"}, nil, rows)
	require.NoError(t, err)
	return series
}

var sampleWeights = domain.WeightVector{0.4, 0.4, 0.2}

func TestSimulateReproducibleWithSeed(t *testing.T) {
	series := sampleSeries(t)
	params := Params{HorizonDays: 63, Trials: 1000}

	first, err := Simulate(context.Background(), series, sampleWeights, params, rand.NewPCG(2024, 1))
	require.NoError(t, err)
	second, err := Simulate(context.Background(), series, sampleWeights, params, rand.NewPCG(2024, 1))
	require.NoError(t, err)

	require.Equal(t, 1000, first.Len())
	assert.Equal(t, first.Values(), second.Values())
	assert.Equal(t, 63, first.HorizonDays())
}

func TestSimulateIndependentOfWorkerCount(t *testing.T) {
	series := sampleSeries(t)

	single, err := Simulate(context.Background(), series, sampleWeights,
		Params{HorizonDays: 21, Trials: 777, Workers: 1}, rand.NewPCG(9, 9))
	require.NoError(t, err)
	many, err := Simulate(context.Background(), series, sampleWeights,
		Params{HorizonDays: 21, Trials: 777, Workers: 8}, rand.NewPCG(9, 9))
	require.NoError(t, err)

	assert.Equal(t, single.Values(), many.Values())
}

func TestSimulateDifferentSeedsDiffer(t *testing.T) {
	series := sampleSeries(t)
	params := Params{HorizonDays: 10, Trials: 100}

	a, err := Simulate(context.Background(), series, sampleWeights, params, rand.NewPCG(1, 1))
	require.NoError(t, err)
	b, err := Simulate(context.Background(), series, sampleWeights, params, rand.NewPCG(2, 2))
	require.NoError(t, err)

	assert.NotEqual(t, a.Values(), b.Values())
}

func TestSimulateZeroVolatilityIsDeterministic(t *testing.T) {
	model := Model{DailyMean: 0.001, DailyVol: 0}
	params := Params{HorizonDays: 63, Trials: 200}

	result, err := model.Simulate(context.Background(), params, rand.NewPCG(5, 5))
	require.NoError(t, err)

	expected := math.Pow(1.001, 63) - 1
	for _, v := range result.Values() {
		assert.InDelta(t, expected, v, 1e-12)
	}

	band, err := DefaultBand(result)
	require.NoError(t, err)
	assert.InDelta(t, expected, band.Lower, 1e-12)
	assert.Equal(t, band.Lower, band.Median)
	assert.Equal(t, band.Median, band.Upper)
}

func TestSimulateNegativeVolatilityDoesNotError(t *testing.T) {
	model := Model{DailyMean: -0.002, DailyVol: -0.01}

	result, err := model.Simulate(context.Background(), Params{HorizonDays: 5, Trials: 3}, rand.NewPCG(1, 2))
	require.NoError(t, err)
	for _, v := range result.Values() {
		assert.InDelta(t, math.Pow(0.998, 5)-1, v, 1e-12)
	}
}

func TestSimulateZeroVarianceSeries(t *testing.T) {
	series, err := domain.NewReturnSeries([]string{"A", "B"}, nil, [][]float64{
		{0.001, 0.001}, {0.001, 0.001}, {0.001, 0.001},
	})
	require.NoError(t, err)

	model, err := NewModel(series, domain.WeightVector{0.5, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.0, model.DailyVol)

	result, err := Simulate(context.Background(), series, domain.WeightVector{0.5, 0.5},
		Params{HorizonDays: 4, Trials: 10}, rand.NewPCG(3, 3))
	require.NoError(t, err)

	band, err := DefaultBand(result)
	require.NoError(t, err)
	assert.InDelta(t, band.Lower, band.Upper, 1e-12)
	assert.InDelta(t, math.Pow(1.001, 4)-1, band.Median, 1e-9)
}

func TestSimulateMeanConverges(t *testing.T) {
	model := Model{DailyMean: 0.0005, DailyVol: 0.01}
	result, err := model.Simulate(context.Background(), Params{HorizonDays: 20, Trials: 20000}, rand.NewPCG(77, 0))
	require.NoError(t, err)

	risk, err := AssessRisk(result)
	require.NoError(t, err)
	// E[prod(1+r)] - 1 = (1+m)^h - 1 for independent draws
	assert.InDelta(t, math.Pow(1.0005, 20)-1, risk.Mean, 0.002)
}

func TestSimulateInvalidParams(t *testing.T) {
	series := sampleSeries(t)

	tests := []struct {
		name   string
		params Params
	}{
		{name: "zero horizon", params: Params{HorizonDays: 0, Trials: 10}},
		{name: "zero trials", params: Params{HorizonDays: 10, Trials: 0}},
		{name: "negative trials", params: Params{HorizonDays: 10, Trials: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Simulate(context.Background(), series, sampleWeights, tt.params, rand.NewPCG(1, 1))
			var insufficient *domain.InsufficientDataError
			assert.ErrorAs(t, err, &insufficient)
		})
	}
}

func TestSimulateInvalidWeights(t *testing.T) {
	_, err := Simulate(context.Background(), sampleSeries(t), domain.WeightVector{0.5, 0.5},
		DefaultParams(), rand.NewPCG(1, 1))
	var invalid *domain.InvalidWeightsError
	assert.ErrorAs(t, err, &invalid)
}

func TestSimulateNilSource(t *testing.T) {
	_, err := Model{DailyMean: 0.001, DailyVol: 0.01}.Simulate(context.Background(), DefaultParams(), nil)
	assert.ErrorIs(t, err, ErrNilSource)
}

func TestSimulateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Model{DailyMean: 0.001, DailyVol: 0.01}.Simulate(ctx, Params{HorizonDays: 63, Trials: 5000}, rand.NewPCG(1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
