package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/enum"
	"github.com/aroi-pos/api/internal/service"
)

// SettingsStore defines the database methods needed by settings handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SettingsStore interface {
	GetShopConfig(ctx context.Context) (database.ShopConfig, error)
	UpdateCategories(ctx context.Context, categories []string) (database.ShopConfig, error)
}

// SettingsHandler handles shop configuration endpoints.
type SettingsHandler struct {
	store SettingsStore
	feed  Publisher
}

// NewSettingsHandler creates a new SettingsHandler.
func NewSettingsHandler(store SettingsStore, feed Publisher) *SettingsHandler {
	return &SettingsHandler{store: store, feed: feed}
}

// RegisterReadRoutes registers the public settings read.
func (h *SettingsHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.Get)
}

// RegisterAdminRoutes registers settings mutations; the router mounts
// these behind the admin role.
func (h *SettingsHandler) RegisterAdminRoutes(r chi.Router) {
	r.Put("/categories", h.UpdateCategories)
}

type updateCategoriesRequest struct {
	Categories []string `json:"categories"`
}

// Get handles GET /settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.store.GetShopConfig(r.Context())
	if err != nil {
		writeServiceError(w, "get settings", err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// UpdateCategories handles PUT /settings/categories. Selections come
// from the fixed master list; anything else is rejected.
func (h *SettingsHandler) UpdateCategories(w http.ResponseWriter, r *http.Request) {
	var req updateCategoriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Categories) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "at least one category is required"})
		return
	}
	for _, c := range req.Categories {
		if !enum.IsMasterCategory(c) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown category: " + c})
			return
		}
	}

	cfg, err := h.store.UpdateCategories(r.Context(), req.Categories)
	if err != nil {
		writeServiceError(w, "update categories", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicSettings)
	writeJSON(w, http.StatusOK, cfg)
}
