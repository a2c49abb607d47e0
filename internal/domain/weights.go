package domain

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightSumTolerance is how far a weight vector's sum may drift from 1.
const WeightSumTolerance = 1e-6

// WeightVector holds one allocation weight per instrument, in instrument order.
// Negative weights (short positions) are accepted.
type WeightVector []float64

// Sum returns the sum of all weights.
func (w WeightVector) Sum() float64 {
	return floats.Sum(w)
}

// Validate checks the vector against an instrument count.
func (w WeightVector) Validate(instruments int) error {
	if len(w) != instruments {
		return &InvalidWeightsError{
			Reason:   "length does not match instrument count",
			Count:    len(w),
			Expected: instruments,
			Sum:      w.Sum(),
		}
	}
	for _, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidWeightsError{
				Reason:   "weights must be finite",
				Count:    len(w),
				Expected: instruments,
				Sum:      math.NaN(),
			}
		}
	}
	sum := w.Sum()
	if math.Abs(sum-1) > WeightSumTolerance {
		return &InvalidWeightsError{
			Reason:   "weights must sum to 1",
			Count:    len(w),
			Expected: instruments,
			Sum:      sum,
		}
	}
	return nil
}

// Vec returns the weights as a gonum column vector.
func (w WeightVector) Vec() *mat.VecDense {
	return mat.NewVecDense(len(w), append([]float64(nil), w...))
}

// EqualWeights returns 1/n for each of n instruments.
func EqualWeights(n int) WeightVector {
	w := make(WeightVector, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}
