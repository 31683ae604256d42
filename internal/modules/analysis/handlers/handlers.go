// Package handlers provides HTTP handlers for the event study session.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/internal/modules/analysis"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// DefaultLimit is the number of ranked rows returned when no limit is given.
const DefaultLimit = 5

// Handler handles event study HTTP requests
type Handler struct {
	service   *analysis.Service
	maxBefore int
	maxAfter  int
	log       zerolog.Logger
}

// NewHandler creates a new event study handler. maxBefore and maxAfter are
// the grid bounds used when a request does not set them.
func NewHandler(service *analysis.Service, maxBefore, maxAfter int, log zerolog.Logger) *Handler {
	return &Handler{
		service:   service,
		maxBefore: maxBefore,
		maxAfter:  maxAfter,
		log:       log.With().Str("handler", "events").Logger(),
	}
}

// FitRequest represents a request to fit event windows
type FitRequest struct {
	Dates []string `json:"dates"`
	Name  string   `json:"name"`
}

// HandleFit handles POST /api/events/fit
func (h *Handler) HandleFit(w http.ResponseWriter, r *http.Request) {
	var req FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Error().Err(err).Msg("Failed to decode request body")
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	result, err := h.service.Fit(r.Context(), req.Dates, req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.writeData(w, result)
}

// HandleGetWindows handles GET /api/events/windows
func (h *Handler) HandleGetWindows(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Current()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeData(w, result)
}

// HandleGetIndexEffect handles GET /api/events/effects/index
func (h *Handler) HandleGetIndexEffect(w http.ResponseWriter, r *http.Request) {
	table, err := h.service.IndexEffect(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeData(w, table)
}

// HandleGetIndustryEffect handles GET /api/events/effects/industry
func (h *Handler) HandleGetIndustryEffect(w http.ResponseWriter, r *http.Request) {
	ascending, limit, ok := h.rankParams(w, r)
	if !ok {
		return
	}

	table, err := h.service.IndustryEffect(r.Context(), ascending, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeData(w, table)
}

// HandleGetStockEffect handles GET /api/events/effects/stock
func (h *Handler) HandleGetStockEffect(w http.ResponseWriter, r *http.Request) {
	ascending, limit, ok := h.rankParams(w, r)
	if !ok {
		return
	}

	table, err := h.service.StockEffect(r.Context(), r.URL.Query().Get("industry"), ascending, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeData(w, table)
}

// HandleGetStockAnalysis handles GET /api/events/stocks/{code}/analysis
func (h *Handler) HandleGetStockAnalysis(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	q := r.URL.Query()

	maxBefore, err := intParam(q.Get("max_before"), h.maxBefore)
	if err != nil || maxBefore < 0 {
		h.writeError(w, http.StatusBadRequest, "max_before must be a non-negative integer")
		return
	}
	maxAfter, err := intParam(q.Get("max_after"), h.maxAfter)
	if err != nil || maxAfter < 0 {
		h.writeError(w, http.StatusBadRequest, "max_after must be a non-negative integer")
		return
	}
	detail, err := boolParam(q.Get("detail"), false)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "detail must be a boolean")
		return
	}

	result, err := h.service.StockAnalysis(r.Context(), code, maxBefore, maxAfter, detail)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeData(w, result)
}

func (h *Handler) rankParams(w http.ResponseWriter, r *http.Request) (ascending bool, limit int, ok bool) {
	q := r.URL.Query()

	ascending, err := boolParam(q.Get("ascending"), false)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "ascending must be a boolean")
		return false, 0, false
	}
	limit, err = intParam(q.Get("limit"), DefaultLimit)
	if err != nil || limit < 0 {
		h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return false, 0, false
	}
	return ascending, limit, true
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidDateList), errors.Is(err, domain.ErrInvalidOffset):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoEventDefined):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidStockCode), errors.Is(err, domain.ErrInvalidIndustryName):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	event := h.log.Warn()
	if status == http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Int("status", status).Msg("Request failed")

	h.writeError(w, status, err.Error())
}

func (h *Handler) writeData(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{"error": message})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func boolParam(raw string, fallback bool) (bool, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}
