package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/service"
)

// HistoryServicer defines the service methods needed by history handlers.
// Satisfied by *service.LedgerService; narrow interface for testability.
type HistoryServicer interface {
	CloseDay(ctx context.Context, dateLabel string) (database.DailySummary, error)
}

// HistoryStore defines the database methods needed by history read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type HistoryStore interface {
	ListHistoryByDate(ctx context.Context, dateLabel string) ([]database.HistoryRecord, error)
}

// HistoryHandler handles archived-order endpoints.
type HistoryHandler struct {
	svc   HistoryServicer
	store HistoryStore
	feed  Publisher
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc HistoryServicer, store HistoryStore, feed Publisher) *HistoryHandler {
	return &HistoryHandler{svc: svc, store: store, feed: feed}
}

// RegisterRoutes registers history endpoints on the given Chi router.
// Expected to be mounted at /history. Day-close is registered
// separately so the router can gate it behind the admin role.
func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// List handles GET /history?date=YYYY-MM-DD.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	dateLabel := r.URL.Query().Get("date")
	if dateLabel == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date is required"})
		return
	}
	if _, err := time.Parse("2006-01-02", dateLabel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	records, err := h.store.ListHistoryByDate(r.Context(), dateLabel)
	if err != nil {
		writeServiceError(w, "list history", err)
		return
	}
	if records == nil {
		records = []database.HistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// CloseDay handles POST /history/{date}/close: fold the date's
// archive into a daily summary and purge it.
func (h *HistoryHandler) CloseDay(w http.ResponseWriter, r *http.Request) {
	dateLabel := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", dateLabel); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date format, use YYYY-MM-DD"})
		return
	}

	summary, err := h.svc.CloseDay(r.Context(), dateLabel)
	if err != nil {
		writeServiceError(w, "close day", err)
		return
	}

	h.feed.Publish(r.Context(), service.HistoryTopic(dateLabel), service.TopicSummaries)
	writeJSON(w, http.StatusCreated, summary)
}
