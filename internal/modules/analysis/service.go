package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/events"
	"github.com/aristath/basket/internal/modules/correlation"
	"github.com/aristath/basket/internal/modules/forecast"
	"github.com/aristath/basket/internal/modules/metrics"
	"github.com/aristath/basket/internal/modules/returns"
	"github.com/aristath/basket/pkg/formulas"
)

// streamSalt is the PCG stream selector paired with the request seed.
const streamSalt = 0x9e3779b97f4a7c15

// Archiver uploads a finished report to long-term storage
type Archiver interface {
	Archive(ctx context.Context, reportID string, body []byte) (location string, err error)
}

// Recorder receives per-run timings
type Recorder interface {
	RecordAnalysis(status string, duration time.Duration, trials int)
}

// Dependencies are the collaborators of the analysis service. Only Prices is
// required.
type Dependencies struct {
	Prices   domain.PriceProvider
	Reports  *ReportRepository
	Archiver Archiver
	Events   *events.Manager
	Metrics  Recorder
}

// Service orchestrates price lookup, the core engine and report delivery
type Service struct {
	deps      Dependencies
	defaults  Defaults
	reportTTL time.Duration
	log       zerolog.Logger
	now       func() time.Time
}

// NewService creates an analysis service
func NewService(deps Dependencies, defaults Defaults, reportTTL time.Duration, log zerolog.Logger) *Service {
	if defaults.HorizonDays == 0 {
		defaults.HorizonDays = forecast.DefaultHorizonDays
	}
	if defaults.Trials == 0 {
		defaults.Trials = forecast.DefaultTrials
	}
	if reportTTL <= 0 {
		reportTTL = 24 * time.Hour
	}
	return &Service{
		deps:      deps,
		defaults:  defaults,
		reportTTL: reportTTL,
		log:       log.With().Str("service", "analysis").Logger(),
		now:       time.Now,
	}
}

// stageError tags a failure with the pipeline stage that produced it
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

// Analyze runs the whole pipeline for req. Either every section of the
// report is computed or an error is returned.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	started := s.now()

	p, err := req.plan(s.defaults)
	if err != nil {
		s.fail(req.Instruments, "request", err, started)
		return nil, err
	}

	s.emit(&events.AnalysisStartedData{
		Instruments: p.instruments,
		Start:       req.Start,
		End:         req.End,
		Trials:      p.params.Trials,
		HorizonDays: p.params.HorizonDays,
	})

	report, err := s.run(ctx, p)
	if err != nil {
		stage := "engine"
		var se *stageError
		if errors.As(err, &se) {
			stage = se.stage
			err = se.err
		}
		s.fail(p.instruments, stage, err, started)
		return nil, err
	}

	report.Start = req.Start
	report.End = req.End
	s.deliver(ctx, report)

	duration := s.now().Sub(started)
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordAnalysis("success", duration, report.Forecast.Trials)
	}

	sharpe := report.Statistics.SharpeRatio
	s.emit(&events.AnalysisCompletedData{
		ReportID:     report.ID,
		Instruments:  p.instruments,
		SharpeRatio:  &sharpe,
		MedianReturn: report.Forecast.Band.Median,
		DurationMs:   duration.Milliseconds(),
	})

	s.log.Info().
		Str("report_id", report.ID).
		Strs("instruments", p.instruments).
		Int("observations", report.Observations).
		Float64("sharpe", sharpe).
		Float64("median", report.Forecast.Band.Median).
		Dur("duration", duration).
		Msg("Analysis completed")

	return report, nil
}

func (s *Service) run(ctx context.Context, p plan) (*Report, error) {
	table, err := s.deps.Prices.PriceTable(ctx, p.instruments, p.start, p.end)
	if err != nil {
		return nil, &stageError{"prices", err}
	}

	series, err := returns.ComputeReturns(table)
	if err != nil {
		return nil, &stageError{"returns", err}
	}
	s.log.Debug().Int("prices", table.Len()).Int("returns", series.Len()).Msg("Computed daily returns")

	stats, err := metrics.ComputeMetrics(series, p.weights)
	if err != nil {
		return nil, &stageError{"metrics", err}
	}

	corr, err := correlation.ComputeCorrelation(series)
	if err != nil {
		return nil, &stageError{"correlation", err}
	}

	history, err := buildHistory(series, p.weights)
	if err != nil {
		return nil, &stageError{"history", err}
	}

	model, err := forecast.NewModel(series, p.weights)
	if err != nil {
		return nil, &stageError{"forecast", err}
	}

	seed := rand.Uint64()
	if p.seed != nil {
		seed = *p.seed
	}

	result, err := model.Simulate(ctx, p.params, rand.NewPCG(seed, streamSalt))
	if err != nil {
		return nil, &stageError{"forecast", err}
	}
	band, err := forecast.Summarize(result, p.lower, p.upper)
	if err != nil {
		return nil, &stageError{"forecast", err}
	}
	risk, err := forecast.AssessRisk(result)
	if err != nil {
		return nil, &stageError{"forecast", err}
	}

	composition := make([]Holding, len(p.instruments))
	for i, inst := range p.instruments {
		composition[i] = Holding{Instrument: inst, Weight: p.weights[i]}
	}

	fc := Forecast{
		HorizonDays: p.params.HorizonDays,
		Trials:      p.params.Trials,
		Seed:        seed,
		Model:       model,
		Band:        band,
		Risk:        risk,
	}
	if p.includeOutcomes {
		fc.Outcomes = result.Values()
	}

	return &Report{
		ID:           uuid.NewString(),
		CreatedAt:    s.now().UTC(),
		Composition:  composition,
		Observations: series.Len(),
		Statistics:   stats,
		Correlation: CorrelationTable{
			Instruments: corr.Instruments(),
			Values:      corr.Values(),
		},
		HighCorrelations: correlation.HighlyCorrelated(corr, correlation.HighCorrelationThreshold),
		History:          history,
		Forecast:         fc,
	}, nil
}

func buildHistory(series domain.ReturnSeries, weights domain.WeightVector) (History, error) {
	daily, err := returns.PortfolioDailyReturns(series, weights)
	if err != nil {
		return History{}, err
	}
	cumulative := returns.CumulativeReturns(daily)

	var dates []string
	for _, d := range series.Dates() {
		dates = append(dates, d.Format(domain.DateLayout))
	}

	h := History{
		Dates:             dates,
		DailyReturns:      daily,
		Cumulative:        cumulative,
		MaxDrawdown:       formulas.MaxDrawdown(cumulative),
		RollingWindow:     RollingWindow,
		RollingVolatility: formulas.RollingVolatility(daily, RollingWindow),
	}
	if len(cumulative) > 0 {
		h.TotalReturn = cumulative[len(cumulative)-1]
	}
	return h, nil
}

// deliver caches and archives a finished report. Failures are logged and
// do not fail the analysis.
func (s *Service) deliver(ctx context.Context, report *Report) {
	if s.deps.Reports != nil {
		if err := s.deps.Reports.Store(ctx, report, s.reportTTL); err != nil {
			s.log.Warn().Err(err).Str("report_id", report.ID).Msg("Failed to cache report")
		}
	}

	if s.deps.Archiver == nil {
		return
	}

	body, err := json.Marshal(report)
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", report.ID).Msg("Failed to encode report for archive")
		return
	}
	location, err := s.deps.Archiver.Archive(ctx, report.ID, body)
	if err != nil {
		s.log.Warn().Err(err).Str("report_id", report.ID).Msg("Failed to archive report")
		return
	}
	s.emit(&events.ReportArchivedData{ReportID: report.ID, Key: location, Bytes: int64(len(body))})
}

// Report returns a cached report by ID
func (s *Service) Report(ctx context.Context, id string) (*Report, error) {
	if s.deps.Reports == nil {
		return nil, ErrReportNotFound
	}
	return s.deps.Reports.Get(ctx, id)
}

func (s *Service) fail(instruments []string, stage string, err error, started time.Time) {
	if s.deps.Metrics != nil {
		s.deps.Metrics.RecordAnalysis(stage, s.now().Sub(started), 0)
	}
	s.emit(&events.AnalysisFailedData{
		Instruments: instruments,
		Stage:       stage,
		Error:       err.Error(),
	})
	s.log.Warn().Err(err).Str("stage", stage).Strs("instruments", instruments).Msg("Analysis failed")
}

func (s *Service) emit(data events.EventData) {
	if s.deps.Events != nil {
		s.deps.Events.EmitTyped("analysis", data)
	}
}
