// Package correlation derives the pairwise Pearson correlation matrix of a
// return series.
package correlation

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/pkg/formulas"
)

// HighCorrelationThreshold marks a pair as highly correlated.
const HighCorrelationThreshold = 0.80

// Pair is one off-diagonal entry of the matrix.
type Pair struct {
	A           string  `json:"a" msgpack:"a"`
	B           string  `json:"b" msgpack:"b"`
	Correlation float64 `json:"correlation" msgpack:"correlation"`
}

// ComputeCorrelation returns the Pearson correlation of every instrument pair.
// A zero-variance instrument has no defined correlation with the others; those
// cells are reported as 0 while the diagonal stays 1.
func ComputeCorrelation(returns domain.ReturnSeries) (domain.CorrelationMatrix, error) {
	if returns.Len() < 2 {
		return domain.CorrelationMatrix{}, &domain.InsufficientDataError{Op: "correlation", Have: returns.Len(), Need: 2}
	}

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, returns.Dense(), nil)

	n := returns.Width()
	flat := make([]bool, n)
	for i := range flat {
		col := returns.Column(i)
		mean, std := stat.MeanStdDev(col, nil)
		flat[i] = formulas.NegligibleSpread(std, mean)
	}

	values := make([][]float64, n)
	for i := 0; i < n; i++ {
		values[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			switch v := corr.At(i, j); {
			case i == j:
				values[i][j] = 1
			case flat[i] || flat[j] || math.IsNaN(v):
				values[i][j] = 0
			default:
				values[i][j] = math.Max(-1, math.Min(1, v))
			}
		}
	}

	return domain.NewCorrelationMatrix(returns.Instruments(), values), nil
}

// HighlyCorrelated lists the upper-triangle pairs whose absolute correlation
// reaches threshold.
func HighlyCorrelated(m domain.CorrelationMatrix, threshold float64) []Pair {
	instruments := m.Instruments()
	var pairs []Pair
	for i := 0; i < m.Len(); i++ {
		for j := i + 1; j < m.Len(); j++ {
			if v := m.At(i, j); math.Abs(v) >= threshold {
				pairs = append(pairs, Pair{A: instruments[i], B: instruments[j], Correlation: v})
			}
		}
	}
	return pairs
}
