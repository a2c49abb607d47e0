package domain

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ReturnSeries holds daily simple returns: one row per consecutive date pair,
// dated by the later date of the pair.
type ReturnSeries struct {
	instruments []string
	dates       []time.Time
	rows        [][]float64 // [date][instrument]
}

// NewReturnSeries validates shape and rejects NaN/Inf entries.
func NewReturnSeries(instruments []string, dates []time.Time, rows [][]float64) (ReturnSeries, error) {
	if len(instruments) == 0 {
		return ReturnSeries{}, fmt.Errorf("return series: no instruments")
	}
	if dates != nil && len(dates) != len(rows) {
		return ReturnSeries{}, fmt.Errorf("return series: %d dates for %d rows", len(dates), len(rows))
	}

	s := ReturnSeries{
		instruments: append([]string(nil), instruments...),
		rows:        make([][]float64, len(rows)),
	}
	if dates != nil {
		s.dates = append([]time.Time(nil), dates...)
	}

	for i, row := range rows {
		if len(row) != len(instruments) {
			return ReturnSeries{}, fmt.Errorf("return series: row %d has %d values for %d instruments", i, len(row), len(instruments))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return ReturnSeries{}, fmt.Errorf("return series: undefined value for %s at row %d", instruments[j], i)
			}
		}
		s.rows[i] = append([]float64(nil), row...)
	}

	return s, nil
}

// Instruments returns the column order.
func (s ReturnSeries) Instruments() []string {
	return append([]string(nil), s.instruments...)
}

// Dates returns the row dates; nil when the series was built without dates.
func (s ReturnSeries) Dates() []time.Time {
	if s.dates == nil {
		return nil
	}
	return append([]time.Time(nil), s.dates...)
}

// Len returns the number of return rows.
func (s ReturnSeries) Len() int {
	return len(s.rows)
}

// Width returns the number of instruments.
func (s ReturnSeries) Width() int {
	return len(s.instruments)
}

// Rows returns a deep copy of the return rows.
func (s ReturnSeries) Rows() [][]float64 {
	out := make([][]float64, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Column returns the return history of one instrument.
func (s ReturnSeries) Column(col int) []float64 {
	out := make([]float64, len(s.rows))
	for i, row := range s.rows {
		out[i] = row[col]
	}
	return out
}

// Dense returns the series as an observations x instruments matrix.
// It panics on an empty series, so callers check Len first.
func (s ReturnSeries) Dense() *mat.Dense {
	data := make([]float64, 0, len(s.rows)*len(s.instruments))
	for _, row := range s.rows {
		data = append(data, row...)
	}
	return mat.NewDense(len(s.rows), len(s.instruments), data)
}
