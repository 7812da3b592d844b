package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/service"
)

// ProductStore defines the database methods needed by product handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ProductStore interface {
	CreateProduct(ctx context.Context, arg database.CreateProductParams) (database.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (database.Product, error)
	ListProducts(ctx context.Context) ([]database.Product, error)
	ListAvailableProducts(ctx context.Context) ([]database.Product, error)
	UpdateProduct(ctx context.Context, arg database.UpdateProductParams) (database.Product, error)
	SetProductAvailability(ctx context.Context, id uuid.UUID, available bool) (database.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) (int64, error)
}

// ProductHandler handles menu catalog endpoints.
type ProductHandler struct {
	store ProductStore
	feed  Publisher
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(store ProductStore, feed Publisher) *ProductHandler {
	return &ProductHandler{store: store, feed: feed}
}

// RegisterReadRoutes registers the public catalog read.
func (h *ProductHandler) RegisterReadRoutes(r chi.Router) {
	r.Get("/", h.List)
}

// RegisterAdminRoutes registers catalog mutations; the router mounts
// these behind the admin role.
func (h *ProductHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Patch("/{id}/availability", h.SetAvailability)
	r.Delete("/{id}", h.Delete)
}

// --- Request types ---

type productRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Img      string          `json:"img"`
}

type availabilityRequest struct {
	Available bool `json:"available"`
}

func (req *productRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.Price.IsNegative() {
		return "price must not be negative"
	}
	if req.Category == "" {
		return "category is required"
	}
	return ""
}

// --- Handlers ---

// List handles GET /products. With ?view=customer the catalog is
// narrowed to orderable items in the currently enabled categories;
// the default returns everything for the admin view.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		products []database.Product
		err      error
	)
	if r.URL.Query().Get("view") == "customer" {
		products, err = h.store.ListAvailableProducts(r.Context())
	} else {
		products, err = h.store.ListProducts(r.Context())
	}
	if err != nil {
		writeServiceError(w, "list products", err)
		return
	}
	if products == nil {
		products = []database.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// Create handles POST /products.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	product, err := h.store.CreateProduct(r.Context(), database.CreateProductParams{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Img:      req.Img,
	})
	if err != nil {
		writeServiceError(w, "create product", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicProducts)
	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id}.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
		return
	}

	product, err := h.store.UpdateProduct(r.Context(), database.UpdateProductParams{
		ID:       id,
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		Img:      req.Img,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		writeServiceError(w, "update product", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicProducts)
	writeJSON(w, http.StatusOK, product)
}

// SetAvailability handles PATCH /products/{id}/availability: sold-out
// toggling without touching the rest of the item.
func (h *ProductHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	var req availabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	product, err := h.store.SetProductAvailability(r.Context(), id, req.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
			return
		}
		writeServiceError(w, "set product availability", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicProducts)
	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid product ID"})
		return
	}

	n, err := h.store.DeleteProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, "delete product", err)
		return
	}
	if n == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
		return
	}

	h.feed.Publish(r.Context(), service.TopicProducts)
	w.WriteHeader(http.StatusNoContent)
}
