// Package handlers provides HTTP handlers for trade journal management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/daybook/internal/modules/trades"
)

// Broadcaster pushes journal-change events to connected dashboard clients
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Handler provides HTTP handlers for trade endpoints
type Handler struct {
	repo        *trades.Repository
	broadcaster Broadcaster
	log         zerolog.Logger
}

// NewHandler creates a new trades handler
func NewHandler(repo *trades.Repository, broadcaster Broadcaster, log zerolog.Logger) *Handler {
	return &Handler{
		repo:        repo,
		broadcaster: broadcaster,
		log:         log.With().Str("handler", "trades").Logger(),
	}
}

// HandleImport handles POST /api/trades/import
// Body: JSON array of raw trade records. Malformed records are dropped,
// duplicates skipped; the response reports all three counts.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	var raw []trades.RawTrade
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.repo.Import(raw)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to import trades")
		http.Error(w, "Failed to import trades", http.StatusInternalServerError)
		return
	}

	if h.broadcaster != nil && result.Imported > 0 {
		h.broadcaster.Broadcast("trades_imported", result)
	}

	writeJSON(w, h.log, result)
}

// HandleList handles GET /api/trades?account=&instrument=&from=&to=
// from/to are yyyy-MM-dd and interpreted as UTC day bounds.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	filter := trades.Filter{
		AccountNumber: r.URL.Query().Get("account"),
		Instrument:    r.URL.Query().Get("instrument"),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.UTC)
		if err != nil {
			http.Error(w, "Invalid from date (expected yyyy-MM-dd)", http.StatusBadRequest)
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.UTC)
		if err != nil {
			http.Error(w, "Invalid to date (expected yyyy-MM-dd)", http.StatusBadRequest)
			return
		}
		// Inclusive end of day
		filter.To = t.Add(24*time.Hour - time.Second)
	}

	list, err := h.repo.List(filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list trades")
		http.Error(w, "Failed to list trades", http.StatusInternalServerError)
		return
	}

	writeJSON(w, h.log, list)
}

// HandleUpdateTags handles PUT /api/trades/{id}/tags
func (h *Handler) HandleUpdateTags(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Tags []string `json:"tags"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateTags(id, body.Tags); err != nil {
		if errors.Is(err, trades.ErrNotFound) {
			http.Error(w, "Trade not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update tags")
		http.Error(w, "Failed to update tags", http.StatusInternalServerError)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast("trade_updated", map[string]string{"id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateComment handles PUT /api/trades/{id}/comment
func (h *Handler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Comment  string `json:"comment"`
		VideoURL string `json:"video_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdateAnnotations(id, body.Comment, body.VideoURL); err != nil {
		if errors.Is(err, trades.ErrNotFound) {
			http.Error(w, "Trade not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to update comment")
		http.Error(w, "Failed to update comment", http.StatusInternalServerError)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast("trade_updated", map[string]string{"id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /api/trades/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.repo.Delete(id); err != nil {
		if errors.Is(err, trades.ErrNotFound) {
			http.Error(w, "Trade not found", http.StatusNotFound)
			return
		}
		h.log.Error().Err(err).Str("id", id).Msg("Failed to delete trade")
		http.Error(w, "Failed to delete trade", http.StatusInternalServerError)
		return
	}

	if h.broadcaster != nil {
		h.broadcaster.Broadcast("trade_deleted", map[string]string{"id": id})
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleAccounts handles GET /api/accounts
func (h *Handler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.repo.Accounts()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list accounts")
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}
	if accounts == nil {
		accounts = []string{}
	}

	writeJSON(w, h.log, accounts)
}

func writeJSON(w http.ResponseWriter, log zerolog.Logger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}
