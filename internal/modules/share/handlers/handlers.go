// Package handlers provides HTTP handlers for shared snapshots.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/domain"
	"github.com/aristath/daybook/internal/modules/share"
	"github.com/aristath/daybook/internal/modules/trades"
)

// TradeSource supplies the trades captured into a snapshot
type TradeSource interface {
	List(filter trades.Filter) ([]domain.Trade, error)
}

// Handler provides HTTP handlers for share endpoints
type Handler struct {
	repo            *share.Repository
	source          TradeSource
	defaultTimezone string
	log             zerolog.Logger
}

// NewHandler creates a new share handler
func NewHandler(repo *share.Repository, source TradeSource, defaultTimezone string, log zerolog.Logger) *Handler {
	return &Handler{
		repo:            repo,
		source:          source,
		defaultTimezone: defaultTimezone,
		log:             log.With().Str("handler", "share").Logger(),
	}
}

// createRequest is the body of POST /api/share
type createRequest struct {
	Title    string `json:"title"`
	Account  string `json:"account"`
	DateFrom string `json:"date_from"` // yyyy-MM-dd, optional
	DateTo   string `json:"date_to"`   // yyyy-MM-dd, optional
	Timezone string `json:"timezone"`
}

// HandleCreate handles POST /api/share. It captures the filtered trades
// into an immutable snapshot and returns the public slug; later edits to
// the journal never change a published share.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Timezone == "" {
		req.Timezone = h.defaultTimezone
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "Invalid timezone", http.StatusBadRequest)
		return
	}

	filter := trades.Filter{AccountNumber: req.Account}
	if req.DateFrom != "" {
		t, err := time.ParseInLocation("2006-01-02", req.DateFrom, time.UTC)
		if err != nil {
			http.Error(w, "Invalid date_from (expected yyyy-MM-dd)", http.StatusBadRequest)
			return
		}
		filter.From = t
	}
	if req.DateTo != "" {
		t, err := time.ParseInLocation("2006-01-02", req.DateTo, time.UTC)
		if err != nil {
			http.Error(w, "Invalid date_to (expected yyyy-MM-dd)", http.StatusBadRequest)
			return
		}
		filter.To = t.Add(24*time.Hour - time.Second)
	}

	list, err := h.source.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load trades for snapshot")
		http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []domain.Trade{}
	}

	slug, err := h.repo.Create(share.Snapshot{
		Title:    req.Title,
		DateFrom: req.DateFrom,
		DateTo:   req.DateTo,
		Timezone: req.Timezone,
		Trades:   list,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create snapshot")
		http.Error(w, "Failed to create snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]string{"slug": slug}); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

// HandleGet handles GET /api/share/{slug}. Expired or unknown snapshots
// report 404.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	snapshot, err := h.repo.Get(slug)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			http.Error(w, "Snapshot not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("slug", slug).Msg("Failed to get snapshot")
		http.Error(w, "Failed to get snapshot", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
