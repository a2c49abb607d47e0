package correlation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/basket/internal/domain"
)

func randomSeries(t *testing.T, rows, cols int) domain.ReturnSeries {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 11))
	data := make([][]float64, rows)
	instruments := make([]string, cols)
	for j := range instruments {
		instruments[j] = string(rune('A' + j))
	}
	for i := range data {
		data[i] = make([]float64, cols)
		for j := range data[i] {
			data[i][j] = rng.NormFloat64() * 0.02
		}
	}
	series, err := domain.NewReturnSeries(instruments, nil, data)
	require.NoError(t, err)
	return series
}

func TestComputeCorrelationDiagonalAndSymmetry(t *testing.T) {
	series := randomSeries(t, 120, 5)

	m, err := ComputeCorrelation(series)
	require.NoError(t, err)
	require.Equal(t, 5, m.Len())

	for i := 0; i < m.Len(); i++ {
		assert.Equal(t, 1.0, m.At(i, i))
		for j := 0; j < m.Len(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.GreaterOrEqual(t, m.At(i, j), -1.0)
			assert.LessOrEqual(t, m.At(i, j), 1.0)
		}
	}
}

func TestComputeCorrelationKnownValues(t *testing.T) {
	series, err := domain.NewReturnSeries([]string{"UP", "SAME", "INV"}, nil, [][]float64{
		{0.01, 0.02, -0.01},
		{0.02, 0.04, -0.02},
		{-0.01, -0.02, 0.01},
		{0.03, 0.06, -0.03},
	})
	require.NoError(t, err)

	m, err := ComputeCorrelation(series)
	require.NoError(t, err)

	same, err := m.Get("UP", "SAME")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-12)

	inv, err := m.Get("UP", "INV")
	require.NoError(t, err)
	assert.InDelta(t, -1.0, inv, 1e-12)

	pairs := HighlyCorrelated(m, HighCorrelationThreshold)
	assert.Len(t, pairs, 3)
}

func TestComputeCorrelationZeroVariance(t *testing.T) {
	series, err := domain.NewReturnSeries([]string{"FLAT", "MOVE"}, nil, [][]float64{
		{0, 0.01},
		{0, -0.02},
		{0, 0.03},
	})
	require.NoError(t, err)

	m, err := ComputeCorrelation(series)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.Equal(t, 1.0, m.At(1, 1))
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 0))
}

func TestComputeCorrelationConstantNonZeroReturns(t *testing.T) {
	rows := make([][]float64, 7)
	for i := range rows {
		rows[i] = []float64{0.01, 0.01 * float64(i%3-1)}
	}
	series, err := domain.NewReturnSeries([]string{"BOND", "MOVE"}, nil, rows)
	require.NoError(t, err)

	m, err := ComputeCorrelation(series)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.At(0, 1))
	assert.Equal(t, 0.0, m.At(1, 0))
	assert.Equal(t, 1.0, m.At(0, 0))
}

func TestComputeCorrelationInsufficientData(t *testing.T) {
	series, err := domain.NewReturnSeries([]string{"A", "B"}, nil, [][]float64{{0.01, 0.02}})
	require.NoError(t, err)

	_, err = ComputeCorrelation(series)
	var insufficient *domain.InsufficientDataError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "correlation", insufficient.Op)
	assert.Equal(t, 1, insufficient.Have)
}
