package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/aroi-pos/api/internal/auth"
	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/enum"
	"github.com/aroi-pos/api/internal/service"
)

// Publisher rebuilds and pushes topic snapshots after mutations.
// Satisfied by *service.Feed; narrow interface for testability.
type Publisher interface {
	Publish(ctx context.Context, topics ...string)
	DecrementOrderAlerts()
}

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetShopConfig(ctx context.Context) (database.ShopConfig, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     AuthStore
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.Login)
}

// --- Request / Response types ---

type loginRequest struct {
	Pin string `json:"pin"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
}

// --- Handlers ---

// Login handles the shop's PIN gate. The single admin PIN unlocks the
// admin role; there are no per-user accounts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Pin == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "pin is required"})
		return
	}

	cfg, err := h.store.GetShopConfig(r.Context())
	if err != nil {
		log.Printf("ERROR: login: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPinHash), []byte(req.Pin)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateToken(h.jwtSecret, enum.RoleAdmin)
	if err != nil {
		log.Printf("ERROR: login: generate token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, Role: enum.RoleAdmin})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps known service errors to HTTP status codes;
// anything unrecognized is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
	case errors.Is(err, service.ErrOrderNotCancellable):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is already cooked and can no longer be cancelled"})
	case errors.Is(err, service.ErrEmptyDay):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no history records for this date"})
	case errors.Is(err, service.ErrSummaryNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "summary not found"})
	case service.IsTransient(err):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "storage temporarily unavailable, please retry"})
	default:
		log.Printf("ERROR: %s: %v", op, err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
