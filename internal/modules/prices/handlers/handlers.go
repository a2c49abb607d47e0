// Package handlers provides HTTP handlers for price history operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/prices"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// defaultSyncYears is how far back a sync reaches when no start is given
const defaultSyncYears = 5

// Handler handles price HTTP requests
type Handler struct {
	service *prices.Service
	log     zerolog.Logger
	now     func() time.Time
}

// NewHandler creates a new price handler
func NewHandler(service *prices.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "prices").Logger(),
		now:     time.Now,
	}
}

// HandleGetPrices handles GET /api/prices/{instrument}?start=&end=
func (h *Handler) HandleGetPrices(w http.ResponseWriter, r *http.Request) {
	instrument := chi.URLParam(r, "instrument")

	start, end, err := parseRange(r, time.Time{}, time.Time{})
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	history, err := h.service.History(r.Context(), instrument, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("instrument", instrument).Msg("Failed to get prices")
		h.writeError(w, http.StatusInternalServerError, errors.New("failed to get prices"))
		return
	}
	if len(history) == 0 {
		h.writeError(w, http.StatusNotFound, &domain.MissingInstrumentError{Instrument: instrument})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"instrument": instrument,
			"prices":     history,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(history),
		},
	})
}

// HandleSyncPrices handles POST /api/prices/{instrument}/sync?start=&end=
func (h *Handler) HandleSyncPrices(w http.ResponseWriter, r *http.Request) {
	instrument := chi.URLParam(r, "instrument")

	today := h.now().UTC().Truncate(24 * time.Hour)
	start, end, err := parseRange(r, today.AddDate(-defaultSyncYears, 0, 0), today)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	count, err := h.service.Sync(r.Context(), instrument, start, end)
	if err != nil {
		h.log.Error().Err(err).Str("instrument", instrument).Msg("Failed to sync prices")
		h.writeError(w, http.StatusBadGateway, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"instrument": instrument,
			"synced":     count,
			"start":      start.Format(domain.DateLayout),
			"end":        end.Format(domain.DateLayout),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func parseRange(r *http.Request, defaultStart, defaultEnd time.Time) (time.Time, time.Time, error) {
	start, err := parseDate(r.URL.Query().Get("start"), "start", defaultStart)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate(r.URL.Query().Get("end"), "end", defaultEnd)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		return time.Time{}, time.Time{}, &domain.InvalidRequestError{Field: "end", Reason: "must be after start"}
	}
	return start, end, nil
}

func parseDate(value, field string, fallback time.Time) (time.Time, error) {
	if value == "" {
		return fallback, nil
	}
	t, err := time.Parse(domain.DateLayout, value)
	if err != nil {
		return time.Time{}, &domain.InvalidRequestError{Field: field, Reason: "expected YYYY-MM-DD"}
	}
	return t, nil
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
