// Package forecast projects a portfolio forward with a Monte Carlo simulation
// of i.i.d. normal daily returns and summarizes the terminal outcomes.
package forecast

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/metrics"
)

// Defaults mirror a one-quarter forecast with a 90% band.
const (
	DefaultHorizonDays     = 63
	DefaultTrials          = 500
	DefaultLowerPercentile = 5.0
	DefaultUpperPercentile = 95.0
)

// chunkSize is the number of trials that share one random stream. Chunks, not
// workers, own the streams so results do not depend on the worker count.
const chunkSize = 64

// ErrNilSource is returned when no random source is supplied.
var ErrNilSource = errors.New("forecast: random source is required")

// Params controls one simulation run.
type Params struct {
	HorizonDays int
	Trials      int
	Workers     int // 0 means runtime.NumCPU()
}

// DefaultParams returns the 63-day, 500-trial setup.
func DefaultParams() Params {
	return Params{HorizonDays: DefaultHorizonDays, Trials: DefaultTrials}
}

// Validate rejects empty horizons or trial counts.
func (p Params) Validate() error {
	if p.HorizonDays < 1 {
		return &domain.InsufficientDataError{Op: "forecast horizon", Have: p.HorizonDays, Need: 1}
	}
	if p.Trials < 1 {
		return &domain.InsufficientDataError{Op: "forecast trials", Have: p.Trials, Need: 1}
	}
	return nil
}

// Model is the portfolio-level scalar return model: daily mean and daily
// volatility, both taken from history without annualization.
type Model struct {
	DailyMean float64 `json:"daily_mean" msgpack:"daily_mean"`
	DailyVol  float64 `json:"daily_vol" msgpack:"daily_vol"`
}

// NewModel derives m = mu . w and v = sqrt(w' Sigma w) from daily returns.
func NewModel(returns domain.ReturnSeries, weights domain.WeightVector) (Model, error) {
	mean, vol, err := metrics.DailyMoments(returns, weights)
	if err != nil {
		return Model{}, err
	}
	return Model{DailyMean: mean, DailyVol: vol}, nil
}

// Simulate runs Trials independent paths of HorizonDays normal daily returns
// and records each path's compounded terminal return.
func Simulate(ctx context.Context, returns domain.ReturnSeries, weights domain.WeightVector, p Params, src rand.Source) (domain.SimulationResult, error) {
	if err := p.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	model, err := NewModel(returns, weights)
	if err != nil {
		return domain.SimulationResult{}, err
	}
	return model.Simulate(ctx, p, src)
}

// Simulate runs the model. A volatility of zero or below yields the
// deterministic path (1+m)^h - 1 for every trial.
func (m Model) Simulate(ctx context.Context, p Params, src rand.Source) (domain.SimulationResult, error) {
	if err := p.Validate(); err != nil {
		return domain.SimulationResult{}, err
	}
	if src == nil {
		return domain.SimulationResult{}, ErrNilSource
	}

	sigma := m.DailyVol
	if sigma < 0 {
		sigma = 0
	}

	chunks := (p.Trials + chunkSize - 1) / chunkSize

	// Seeds are drawn sequentially from the caller's source before any worker
	// starts, so the caller's source is never shared.
	seeds := make([]uint64, chunks)
	for i := range seeds {
		seeds[i] = src.Uint64()
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	terminal := make([]float64, p.Trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for c := 0; c < chunks; c++ {
		g.Go(func() error {
			start := c * chunkSize
			end := min(start+chunkSize, p.Trials)

			dist := distuv.Normal{
				Mu:    m.DailyMean,
				Sigma: sigma,
				Src:   rand.NewPCG(seeds[c], uint64(c)),
			}

			for t := start; t < end; t++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				terminal[t] = runPath(dist, p.HorizonDays)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.SimulationResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.SimulationResult{}, err
	}

	return domain.NewSimulationResult(p.HorizonDays, terminal), nil
}

// runPath compounds horizon draws into prod(1+r) - 1.
func runPath(dist distuv.Normal, horizon int) float64 {
	growth := 1.0
	for d := 0; d < horizon; d++ {
		growth *= 1 + dist.Rand()
	}
	return growth - 1
}
