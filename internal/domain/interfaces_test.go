package domain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ PriceProvider = StaticPrices{}

func TestStaticPricesMissingInstrument(t *testing.T) {
	table, err := NewPriceTable([]string{"AAPL"}, []PriceRow{
		{Date: day(2), Prices: map[string]float64{"AAPL": 100}},
	})
	require.NoError(t, err)

	_, err = StaticPrices{Table: table}.PriceTable(context.Background(), []string{"AAPL", "GLD"}, time.Time{}, time.Time{})
	var missing *MissingInstrumentError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "GLD", missing.Instrument)
}
