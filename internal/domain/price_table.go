package domain

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the canonical date format used across the API and storage.
const DateLayout = "2006-01-02"

// PriceRow is one date of adjusted prices keyed by instrument identifier.
type PriceRow struct {
	Date   time.Time
	Prices map[string]float64
}

// PriceTable is an ordered table of adjusted prices: one row per date, one
// column per instrument. It is immutable once built.
type PriceTable struct {
	instruments []string
	dates       []time.Time
	prices      [][]float64 // [date][instrument]
}

// NewPriceTable builds a table from rows, enforcing that every row carries
// exactly the given instruments, dates strictly increase and prices are
// finite and positive.
func NewPriceTable(instruments []string, rows []PriceRow) (PriceTable, error) {
	if len(instruments) == 0 {
		return PriceTable{}, fmt.Errorf("%w: no instruments", ErrMalformedPriceTable)
	}

	index := make(map[string]int, len(instruments))
	for i, inst := range instruments {
		if inst == "" {
			return PriceTable{}, fmt.Errorf("%w: empty instrument identifier", ErrMalformedPriceTable)
		}
		if _, dup := index[inst]; dup {
			return PriceTable{}, fmt.Errorf("%w: duplicate instrument %q", ErrMalformedPriceTable, inst)
		}
		index[inst] = i
	}

	t := PriceTable{
		instruments: append([]string(nil), instruments...),
		dates:       make([]time.Time, 0, len(rows)),
		prices:      make([][]float64, 0, len(rows)),
	}

	for r, row := range rows {
		if r > 0 && !row.Date.After(rows[r-1].Date) {
			return PriceTable{}, fmt.Errorf("%w: dates not strictly increasing at %s",
				ErrMalformedPriceTable, row.Date.Format(DateLayout))
		}

		values := make([]float64, len(instruments))
		for _, inst := range instruments {
			p, ok := row.Prices[inst]
			if !ok {
				return PriceTable{}, &MissingInstrumentError{Instrument: inst, Date: row.Date.Format(DateLayout)}
			}
			if math.IsNaN(p) || math.IsInf(p, 0) || p <= 0 {
				return PriceTable{}, fmt.Errorf("%w: non-positive price %v for %s on %s",
					ErrMalformedPriceTable, p, inst, row.Date.Format(DateLayout))
			}
			values[index[inst]] = p
		}
		if len(row.Prices) != len(instruments) {
			for inst := range row.Prices {
				if _, ok := index[inst]; !ok {
					return PriceTable{}, fmt.Errorf("%w: unexpected instrument %q on %s",
						ErrMalformedPriceTable, inst, row.Date.Format(DateLayout))
				}
			}
		}

		t.dates = append(t.dates, row.Date)
		t.prices = append(t.prices, values)
	}

	return t, nil
}

// Instruments returns the column order of the table.
func (t PriceTable) Instruments() []string {
	return append([]string(nil), t.instruments...)
}

// Dates returns the row dates in ascending order.
func (t PriceTable) Dates() []time.Time {
	return append([]time.Time(nil), t.dates...)
}

// Len returns the number of dates.
func (t PriceTable) Len() int {
	return len(t.dates)
}

// Price returns the price at a row/column position.
func (t PriceTable) Price(row, col int) float64 {
	return t.prices[row][col]
}

// Column returns the price history of one instrument.
func (t PriceTable) Column(col int) []float64 {
	out := make([]float64, len(t.prices))
	for i, row := range t.prices {
		out[i] = row[col]
	}
	return out
}

// Select re-projects the table onto the given instruments, in that order.
func (t PriceTable) Select(instruments []string) (PriceTable, error) {
	index := make(map[string]int, len(t.instruments))
	for i, inst := range t.instruments {
		index[inst] = i
	}

	cols := make([]int, len(instruments))
	for i, inst := range instruments {
		c, ok := index[inst]
		if !ok {
			return PriceTable{}, &MissingInstrumentError{Instrument: inst}
		}
		cols[i] = c
	}

	out := PriceTable{
		instruments: append([]string(nil), instruments...),
		dates:       append([]time.Time(nil), t.dates...),
		prices:      make([][]float64, len(t.prices)),
	}
	for r, row := range t.prices {
		values := make([]float64, len(cols))
		for i, c := range cols {
			values[i] = row[c]
		}
		out.prices[r] = values
	}
	return out, nil
}

// Between returns the rows dated within [start, end]. A zero start or end
// leaves that side unbounded.
func (t PriceTable) Between(start, end time.Time) PriceTable {
	out := PriceTable{instruments: append([]string(nil), t.instruments...)}
	for r, d := range t.dates {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out.dates = append(out.dates, d)
		out.prices = append(out.prices, append([]float64(nil), t.prices[r]...))
	}
	return out
}
