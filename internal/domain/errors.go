package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedPriceTable is wrapped by every PriceTable construction failure
// that is not a missing instrument.
var ErrMalformedPriceTable = errors.New("malformed price table")

// InsufficientDataError reports that a computation did not get enough rows.
type InsufficientDataError struct {
	Op   string // computation that failed, e.g. "returns", "correlation"
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: have %d, need at least %d", e.Op, e.Have, e.Need)
}

// InvalidWeightsError reports a weight vector that does not fit the instruments
// or does not sum to one.
type InvalidWeightsError struct {
	Reason   string
	Count    int
	Expected int
	Sum      float64
}

func (e *InvalidWeightsError) Error() string {
	switch {
	case e.Count != e.Expected:
		return fmt.Sprintf("invalid weights: %s (got %d weights for %d instruments)", e.Reason, e.Count, e.Expected)
	default:
		return fmt.Sprintf("invalid weights: %s (sum %.6f)", e.Reason, e.Sum)
	}
}

// MissingInstrumentError reports an instrument absent from price data.
type MissingInstrumentError struct {
	Instrument string
	Date       string // optional, set when only some dates lack the instrument
}

func (e *MissingInstrumentError) Error() string {
	if e.Date != "" {
		return fmt.Sprintf("instrument %q missing from price data on %s", e.Instrument, e.Date)
	}
	return fmt.Sprintf("instrument %q missing from price data", e.Instrument)
}

// UndefinedRatioError reports a ratio whose denominator is zero.
type UndefinedRatioError struct {
	Ratio  string
	Reason string
}

func (e *UndefinedRatioError) Error() string {
	return fmt.Sprintf("%s ratio undefined: %s", e.Ratio, e.Reason)
}

// InvalidRequestError reports a malformed analysis request field.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
