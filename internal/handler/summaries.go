package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/export"
	"github.com/aroi-pos/api/internal/service"
)

// SummaryStore defines the database methods needed by summary handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SummaryStore interface {
	ListDailySummaries(ctx context.Context) ([]database.DailySummary, error)
	GetDailySummary(ctx context.Context, id uuid.UUID) (database.DailySummary, error)
	DeleteDailySummary(ctx context.Context, id uuid.UUID) (int64, error)
}

// SummaryHandler handles daily-summary endpoints.
type SummaryHandler struct {
	store SummaryStore
	feed  Publisher
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(store SummaryStore, feed Publisher) *SummaryHandler {
	return &SummaryHandler{store: store, feed: feed}
}

// RegisterRoutes registers summary read endpoints on the given Chi
// router. Deletion is registered separately so the router can gate it
// behind the admin role.
func (h *SummaryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}/export", h.Export)
}

// List handles GET /summaries, newest first.
func (h *SummaryHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.store.ListDailySummaries(r.Context())
	if err != nil {
		writeServiceError(w, "list summaries", err)
		return
	}
	if summaries == nil {
		summaries = []database.DailySummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

// Export handles GET /summaries/{id}/export: one summary as a CSV
// download.
func (h *SummaryHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	summary, err := h.store.GetDailySummary(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeServiceError(w, "export summary", service.ErrSummaryNotFound)
			return
		}
		writeServiceError(w, "export summary", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.SummaryFilename(summary)))
	if err := export.WriteSummaryCSV(w, summary); err != nil {
		writeServiceError(w, "export summary", err)
	}
}

// Delete handles DELETE /summaries/{id}.
func (h *SummaryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid summary ID"})
		return
	}

	n, err := h.store.DeleteDailySummary(r.Context(), id)
	if err != nil {
		writeServiceError(w, "delete summary", err)
		return
	}
	if n == 0 {
		writeServiceError(w, "delete summary", service.ErrSummaryNotFound)
		return
	}

	h.feed.Publish(r.Context(), service.TopicSummaries)
	w.WriteHeader(http.StatusNoContent)
}
