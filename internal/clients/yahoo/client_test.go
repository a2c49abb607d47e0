package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {"symbol": "AAPL", "currency": "USD", "gmtoffset": -14400},
      "timestamp": [1704205800, 1704292200, 1704378600],
      "indicators": {
        "quote": [{
          "open":   [187.15, null, 182.15],
          "high":   [188.44, null, 183.09],
          "low":    [183.89, null, 180.88],
          "close":  [185.64, null, 181.91],
          "volume": [82488700, null, 71983600]
        }],
        "adjclose": [{"adjclose": [184.94, null, null]}]
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{BaseURL: server.URL, RatePerSecond: 100}, zerolog.New(nil).Level(zerolog.Disabled))
}

func TestGetHistoricalPrices(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(chartFixture))
	})

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	prices, err := client.GetHistoricalPrices(context.Background(), "AAPL", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/AAPL", gotPath)
	assert.Equal(t, []string{"1d"}, gotQuery["interval"])
	assert.Equal(t, []string{"1704153600"}, gotQuery["period1"])
	assert.Equal(t, []string{"1704412800"}, gotQuery["period2"])

	require.Len(t, prices, 2, "null session must be skipped")
	assert.Equal(t, start, prices[0].Date)
	assert.Equal(t, 184.94, prices[0].AdjClose)
	assert.Equal(t, int64(82488700), prices[0].Volume)

	assert.Equal(t, end, prices[1].Date)
	assert.Equal(t, 181.91, prices[1].AdjClose, "missing adjclose falls back to close")
}

func TestGetHistoricalPricesErrors(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	t.Run("http status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		})
		_, err := client.GetHistoricalPrices(context.Background(), "AAPL", start, end)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("api error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`))
		})
		_, err := client.GetHistoricalPrices(context.Background(), "NOPE", start, end)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delisted")
	})

	t.Run("empty result", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		})
		prices, err := client.GetHistoricalPrices(context.Background(), "AAPL", start, end)
		require.NoError(t, err)
		assert.Empty(t, prices)
	})

	t.Run("inverted range", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("no request expected")
		})
		_, err := client.GetHistoricalPrices(context.Background(), "AAPL", end, start)
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(chartFixture))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := client.GetHistoricalPrices(ctx, "AAPL", start, end)
		assert.Error(t, err)
	})
}
