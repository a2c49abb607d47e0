// Package domain provides the value types and error taxonomy shared by the
// analysis engine and its collaborators.
package domain

import (
	"encoding/json"
)

// PortfolioStatistics is the annualized risk/return profile of a portfolio.
type PortfolioStatistics struct {
	AnnualizedReturn float64 `json:"annualized_return" msgpack:"annualized_return"`
	AnnualizedStdDev float64 `json:"annualized_std_dev" msgpack:"annualized_std_dev"`
	SharpeRatio      float64 `json:"sharpe_ratio" msgpack:"sharpe_ratio"`
}

// CorrelationMatrix is a symmetric instrument x instrument matrix of Pearson
// coefficients with a unit diagonal.
type CorrelationMatrix struct {
	instruments []string
	values      [][]float64
}

// NewCorrelationMatrix copies values; the caller guarantees shape and symmetry.
func NewCorrelationMatrix(instruments []string, values [][]float64) CorrelationMatrix {
	c := CorrelationMatrix{
		instruments: append([]string(nil), instruments...),
		values:      make([][]float64, len(values)),
	}
	for i, row := range values {
		c.values[i] = append([]float64(nil), row...)
	}
	return c
}

// Instruments returns the row/column order.
func (c CorrelationMatrix) Instruments() []string {
	return append([]string(nil), c.instruments...)
}

// Len returns the matrix dimension.
func (c CorrelationMatrix) Len() int {
	return len(c.instruments)
}

// At returns the coefficient at position (i, j).
func (c CorrelationMatrix) At(i, j int) float64 {
	return c.values[i][j]
}

// Get returns the coefficient between two instruments by identifier.
func (c CorrelationMatrix) Get(a, b string) (float64, error) {
	i, j := -1, -1
	for k, inst := range c.instruments {
		if inst == a {
			i = k
		}
		if inst == b {
			j = k
		}
	}
	if i < 0 {
		return 0, &MissingInstrumentError{Instrument: a}
	}
	if j < 0 {
		return 0, &MissingInstrumentError{Instrument: b}
	}
	return c.values[i][j], nil
}

// Values returns a deep copy of the matrix rows.
func (c CorrelationMatrix) Values() [][]float64 {
	out := make([][]float64, len(c.values))
	for i, row := range c.values {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// MarshalJSON renders the matrix as {"A": {"A": 1, "B": 0.3}, ...}.
func (c CorrelationMatrix) MarshalJSON() ([]byte, error) {
	out := make(map[string]map[string]float64, len(c.instruments))
	for i, a := range c.instruments {
		row := make(map[string]float64, len(c.instruments))
		for j, b := range c.instruments {
			row[b] = c.values[i][j]
		}
		out[a] = row
	}
	return json.Marshal(out)
}

// SimulationResult holds the terminal cumulative return of every Monte Carlo
// trial, in trial order.
type SimulationResult struct {
	horizonDays int
	terminal    []float64
}

// NewSimulationResult wraps terminal outcomes; the slice is copied.
func NewSimulationResult(horizonDays int, terminal []float64) SimulationResult {
	return SimulationResult{
		horizonDays: horizonDays,
		terminal:    append([]float64(nil), terminal...),
	}
}

// Values returns a copy of the terminal outcomes.
func (r SimulationResult) Values() []float64 {
	return append([]float64(nil), r.terminal...)
}

// Len returns the trial count.
func (r SimulationResult) Len() int {
	return len(r.terminal)
}

// HorizonDays returns the simulated path length.
func (r SimulationResult) HorizonDays() int {
	return r.horizonDays
}

// ForecastBand summarizes a simulation by low, median and high percentiles.
type ForecastBand struct {
	Lower           float64 `json:"lower" msgpack:"lower"`
	Median          float64 `json:"median" msgpack:"median"`
	Upper           float64 `json:"upper" msgpack:"upper"`
	LowerPercentile float64 `json:"lower_percentile" msgpack:"lower_percentile"`
	UpperPercentile float64 `json:"upper_percentile" msgpack:"upper_percentile"`
}
