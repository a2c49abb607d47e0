// Package handlers provides HTTP handlers for portfolio analysis.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/basket/internal/domain"
	"github.com/aristath/basket/internal/modules/analysis"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxRequestBytes = 1 << 20

// Handler handles analysis HTTP requests
type Handler struct {
	service *analysis.Service
	log     zerolog.Logger
}

// NewHandler creates a new analysis handler
func NewHandler(service *analysis.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analysis").Logger(),
	}
}

// HandleAnalyze handles POST /api/analysis
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	report, err := h.service.Analyze(r.Context(), req)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Location", "/api/analysis/"+report.ID)
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleValidate handles POST /api/analysis/validate
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(w, r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := req.Validate(); err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"valid": true,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetReport handles GET /api/analysis/{id}
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.service.Report(r.Context(), id)
	if errors.Is(err, analysis.ErrReportNotFound) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("report_id", id).Msg("Failed to load report")
		h.writeError(w, http.StatusInternalServerError, errors.New("failed to load report"))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (analysis.Request, error) {
	var req analysis.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return analysis.Request{}, fmt.Errorf("invalid request body: %w", err)
	}
	return req, nil
}

// statusFor maps engine errors onto HTTP statuses
func statusFor(err error) int {
	var (
		invalidRequest *domain.InvalidRequestError
		invalidWeights *domain.InvalidWeightsError
		missing        *domain.MissingInstrumentError
		insufficient   *domain.InsufficientDataError
		undefined      *domain.UndefinedRatioError
	)
	switch {
	case errors.As(err, &invalidRequest), errors.As(err, &invalidWeights):
		return http.StatusBadRequest
	case errors.As(err, &missing):
		return http.StatusNotFound
	case errors.As(err, &insufficient), errors.As(err, &undefined), errors.Is(err, domain.ErrMalformedPriceTable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Msg("Analysis request failed")
	}
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
