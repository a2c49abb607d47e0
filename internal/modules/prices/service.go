package prices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/basket/internal/clients/yahoo"
	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/events"
	"github.com/rs/zerolog"
)

// Fetcher downloads daily history for one instrument.
type Fetcher interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]yahoo.HistoricalPrice, error)
}

// Service syncs prices from the market-data provider and serves aligned
// price tables to the analysis engine.
type Service struct {
	history      *HistoryDB
	fetcher      Fetcher
	eventManager *events.Manager
	log          zerolog.Logger
	now          func() time.Time
}

// NewService creates a price service. eventManager may be nil.
func NewService(history *HistoryDB, fetcher Fetcher, eventManager *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		history:      history,
		fetcher:      fetcher,
		eventManager: eventManager,
		log:          log.With().Str("service", "prices").Logger(),
		now:          time.Now,
	}
}

// Sync downloads [start, end] for instrument and stores it. It returns the
// number of daily rows written.
func (s *Service) Sync(ctx context.Context, instrument string, start, end time.Time) (int, error) {
	if s.fetcher == nil {
		return 0, errors.New("no market-data provider configured")
	}

	fetched, err := s.fetcher.GetHistoricalPrices(ctx, instrument, start, end)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", instrument, err)
	}

	daily := make([]DailyPrice, 0, len(fetched))
	for _, p := range fetched {
		volume := p.Volume
		daily = append(daily, DailyPrice{
			Date:          p.Date,
			Open:          p.Open,
			High:          p.High,
			Low:           p.Low,
			Close:         p.Close,
			AdjustedClose: p.AdjClose,
			Volume:        &volume,
		})
	}

	if err := s.history.SyncHistoricalPrices(ctx, instrument, "yahoo", daily); err != nil {
		return 0, fmt.Errorf("store %s: %w", instrument, err)
	}

	if s.eventManager != nil {
		s.eventManager.EmitTyped("prices", &events.PricesSyncedData{
			Instrument: instrument,
			Count:      len(daily),
			Start:      start.Format(domain.DateLayout),
			End:        end.Format(domain.DateLayout),
		})
	}

	return len(daily), nil
}

// SyncResult summarizes a SyncTracked run
type SyncResult struct {
	Synced map[string]int
	Failed map[string]error
}

// SyncTracked refreshes every previously synced instrument, starting
// lookbackDays before its last stored date so late corrections are picked up.
// Instruments that fail are reported in the result and do not stop the run.
func (s *Service) SyncTracked(ctx context.Context, lookbackDays int) (*SyncResult, error) {
	instruments, err := s.history.TrackedInstruments(ctx)
	if err != nil {
		return nil, err
	}

	result := &SyncResult{
		Synced: make(map[string]int, len(instruments)),
		Failed: make(map[string]error),
	}

	end := truncateDay(s.now())
	for _, inst := range instruments {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		start := end.AddDate(-1, 0, 0)
		state, err := s.history.GetSyncState(ctx, inst)
		if err != nil {
			result.Failed[inst] = err
			continue
		}
		if state != nil && state.LastPriceDate != nil {
			start = state.LastPriceDate.AddDate(0, 0, -lookbackDays)
		}
		if !end.After(start) {
			continue
		}

		n, err := s.Sync(ctx, inst, start, end)
		if err != nil {
			s.log.Warn().Err(err).Str("instrument", inst).Msg("Price sync failed")
			result.Failed[inst] = err
			continue
		}
		result.Synced[inst] = n
	}

	return result, nil
}

// History returns stored prices for one instrument.
func (s *Service) History(ctx context.Context, instrument string, start, end time.Time) ([]DailyPrice, error) {
	return s.history.GetDailyPrices(ctx, instrument, start, end)
}

// PriceTable implements domain.PriceProvider over the history database. Only
// dates on which every instrument has a stored adjusted close are kept.
func (s *Service) PriceTable(ctx context.Context, instruments []string, start, end time.Time) (domain.PriceTable, error) {
	series := make(map[string]map[int64]float64, len(instruments))
	var common map[int64]bool

	for _, inst := range instruments {
		daily, err := s.history.GetDailyPrices(ctx, inst, start, end)
		if err != nil {
			return domain.PriceTable{}, err
		}
		if len(daily) == 0 {
			return domain.PriceTable{}, &domain.MissingInstrumentError{Instrument: inst}
		}

		byDate := make(map[int64]float64, len(daily))
		for _, p := range daily {
			byDate[p.Date.Unix()] = p.AdjustedClose
		}
		series[inst] = byDate

		if common == nil {
			common = make(map[int64]bool, len(byDate))
			for d := range byDate {
				common[d] = true
			}
			continue
		}
		for d := range common {
			if _, ok := byDate[d]; !ok {
				delete(common, d)
			}
		}
	}

	return buildTable(instruments, series, common)
}

func buildTable(instruments []string, series map[string]map[int64]float64, common map[int64]bool) (domain.PriceTable, error) {
	dates := make([]int64, 0, len(common))
	for d := range common {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })

	rows := make([]domain.PriceRow, len(dates))
	for i, d := range dates {
		values := make(map[string]float64, len(instruments))
		for _, inst := range instruments {
			values[inst] = series[inst][d]
		}
		rows[i] = domain.PriceRow{Date: time.Unix(d, 0).UTC(), Prices: values}
	}

	return domain.NewPriceTable(instruments, rows)
}
