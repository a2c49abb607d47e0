package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aristath/basket/internal/database"
	"github.com/aristath/basket/internal/modules/prices"
	testingpkg "github.com/aristath/basket/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T, fetcher prices.Fetcher) chi.Router {
	t.Helper()
	db := testingpkg.NewTestDB(t, database.NameHistory)

	log := zerolog.New(nil).Level(zerolog.Disabled)
	service := prices.NewService(prices.NewHistoryDB(db.Conn(), log), fetcher, nil, log)

	router := chi.NewRouter()
	NewHandler(service, log).RegisterRoutes(router)
	return router
}

func TestSyncThenGetPrices(t *testing.T) {
	router := setupRouter(t, &testingpkg.MockFetcher{})

	req := httptest.NewRequest(http.MethodPost, "/prices/AAPL/sync?start=2024-01-01&end=2024-01-05", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var syncResp struct {
		Data struct {
			Synced int    `json:"synced"`
			End    string `json:"end"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &syncResp))
	assert.Equal(t, 5, syncResp.Data.Synced)
	assert.Equal(t, "2024-01-05", syncResp.Data.End)

	req = httptest.NewRequest(http.MethodGet, "/prices/AAPL?start=2024-01-02&end=2024-01-03", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var getResp struct {
		Data struct {
			Instrument string               `json:"instrument"`
			Prices     []prices.DailyPrice `json:"prices"`
		} `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &getResp))
	assert.Equal(t, "AAPL", getResp.Data.Instrument)
	require.Len(t, getResp.Data.Prices, 2)
	assert.Equal(t, 101.0, getResp.Data.Prices[0].AdjustedClose)
	assert.Contains(t, getResp.Metadata, "timestamp")
}

func TestGetPricesUnknownInstrument(t *testing.T) {
	router := setupRouter(t, &testingpkg.MockFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/prices/NOPE", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPricesBadRange(t *testing.T) {
	router := setupRouter(t, &testingpkg.MockFetcher{})

	for _, target := range []string{
		"/prices/AAPL?start=yesterday",
		"/prices/AAPL?start=2024-02-01&end=2024-01-01",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestSyncUpstreamFailure(t *testing.T) {
	router := setupRouter(t, &testingpkg.MockFetcher{Err: errors.New("503 from upstream")})

	req := httptest.NewRequest(http.MethodPost, "/prices/AAPL/sync", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "503 from upstream")
}
