// Package analysis runs the full risk/return and forecast pipeline for one
// portfolio request and caches the resulting reports.
package analysis

import (
	"strings"
	"time"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/forecast"
)

// Request is one analysis job. Zero forecast fields fall back to the
// service defaults.
type Request struct {
	Instruments []string        `json:"instruments"`
	Weights     []float64       `json:"weights"`
	Start       string          `json:"start"`
	End         string          `json:"end"`
	Forecast    ForecastOptions `json:"forecast"`
}

// ForecastOptions tunes the Monte Carlo stage
type ForecastOptions struct {
	HorizonDays     int      `json:"horizon_days,omitempty"`
	Trials          int      `json:"trials,omitempty"`
	LowerPercentile *float64 `json:"lower_percentile,omitempty"`
	UpperPercentile *float64 `json:"upper_percentile,omitempty"`
	Seed            *uint64  `json:"seed,omitempty"`
	IncludeOutcomes bool     `json:"include_outcomes,omitempty"`
}

// Defaults are applied to requests that leave forecast fields unset
type Defaults struct {
	HorizonDays int
	Trials      int
	Workers     int
}

// plan is a validated request with defaults applied
type plan struct {
	instruments     []string
	weights         domain.WeightVector
	start           time.Time
	end             time.Time
	params          forecast.Params
	lower           float64
	upper           float64
	seed            *uint64
	includeOutcomes bool
}

// Validate checks the request without applying defaults
func (r Request) Validate() error {
	_, err := r.plan(Defaults{HorizonDays: forecast.DefaultHorizonDays, Trials: forecast.DefaultTrials})
	return err
}

func (r Request) plan(defaults Defaults) (plan, error) {
	if len(r.Instruments) == 0 {
		return plan{}, &domain.InvalidRequestError{Field: "instruments", Reason: "at least one instrument is required"}
	}

	seen := make(map[string]bool, len(r.Instruments))
	instruments := make([]string, len(r.Instruments))
	for i, inst := range r.Instruments {
		inst = strings.TrimSpace(inst)
		if inst == "" {
			return plan{}, &domain.InvalidRequestError{Field: "instruments", Reason: "empty identifier"}
		}
		if seen[inst] {
			return plan{}, &domain.InvalidRequestError{Field: "instruments", Reason: "duplicate identifier " + inst}
		}
		seen[inst] = true
		instruments[i] = inst
	}

	weights := domain.WeightVector(append([]float64(nil), r.Weights...))
	if err := weights.Validate(len(instruments)); err != nil {
		return plan{}, err
	}

	start, err := time.Parse(domain.DateLayout, r.Start)
	if err != nil {
		return plan{}, &domain.InvalidRequestError{Field: "start", Reason: "expected YYYY-MM-DD"}
	}
	end, err := time.Parse(domain.DateLayout, r.End)
	if err != nil {
		return plan{}, &domain.InvalidRequestError{Field: "end", Reason: "expected YYYY-MM-DD"}
	}
	if !start.Before(end) {
		return plan{}, &domain.InvalidRequestError{Field: "end", Reason: "must be after start"}
	}

	horizon := r.Forecast.HorizonDays
	if horizon == 0 {
		horizon = defaults.HorizonDays
	}
	if horizon < 0 {
		return plan{}, &domain.InvalidRequestError{Field: "forecast.horizon_days", Reason: "must be positive"}
	}
	trials := r.Forecast.Trials
	if trials == 0 {
		trials = defaults.Trials
	}
	if trials < 0 {
		return plan{}, &domain.InvalidRequestError{Field: "forecast.trials", Reason: "must be positive"}
	}

	lower, upper := forecast.DefaultLowerPercentile, forecast.DefaultUpperPercentile
	if r.Forecast.LowerPercentile != nil {
		lower = *r.Forecast.LowerPercentile
	}
	if r.Forecast.UpperPercentile != nil {
		upper = *r.Forecast.UpperPercentile
	}
	if lower < 0 || lower > 50 || upper < 50 || upper > 100 {
		return plan{}, &domain.InvalidRequestError{Field: "forecast", Reason: "percentiles must satisfy 0 <= lower <= 50 <= upper <= 100"}
	}

	return plan{
		instruments:     instruments,
		weights:         weights,
		start:           start,
		end:             end,
		params:          forecast.Params{HorizonDays: horizon, Trials: trials, Workers: defaults.Workers},
		lower:           lower,
		upper:           upper,
		seed:            r.Forecast.Seed,
		includeOutcomes: r.Forecast.IncludeOutcomes,
	}, nil
}
