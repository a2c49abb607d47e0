package domain

import (
	"context"
	"time"
)

// PriceProvider supplies aligned adjusted-close tables. The analysis service
// depends on this interface instead of the prices package so tests and the
// CLI's CSV import can substitute their own source.
type PriceProvider interface {
	// PriceTable returns prices for instruments over [start, end], restricted
	// to dates on which every instrument traded. An instrument without any
	// stored price yields a *MissingInstrumentError.
	PriceTable(ctx context.Context, instruments []string, start, end time.Time) (PriceTable, error)
}

// StaticPrices serves a fixed table, trimmed to the requested window.
type StaticPrices struct {
	Table PriceTable
}

// PriceTable implements PriceProvider.
func (s StaticPrices) PriceTable(_ context.Context, instruments []string, start, end time.Time) (PriceTable, error) {
	selected, err := s.Table.Select(instruments)
	if err != nil {
		return PriceTable{}, err
	}
	return selected.Between(start, end), nil
}
