package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/enum"
	"github.com/aroi-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.LedgerService; narrow interface for testability.
type OrderServicer interface {
	Submit(ctx context.Context, req service.SubmitOrderRequest) (database.Order, error)
	Cancel(ctx context.Context, id uuid.UUID) (database.Order, error)
	MarkCooked(ctx context.Context, id uuid.UUID) (database.Order, error)
	Serve(ctx context.Context, id uuid.UUID) (database.HistoryRecord, error)
}

// OrderStore defines the database methods needed by order read handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type OrderStore interface {
	ListLiveOrders(ctx context.Context) ([]database.Order, error)
	ListOrdersByTable(ctx context.Context, tableNo string) ([]database.Order, error)
}

// OrderHandler handles live-order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
	feed  Publisher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, feed Publisher) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, feed: feed}
}

// RegisterRoutes registers order endpoints on the given Chi router.
// Expected to be mounted at /orders.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Patch("/{id}/status", h.UpdateStatus)
	r.Post("/{id}/serve", h.Serve)
	r.Delete("/{id}", h.Cancel)
}

// --- Request / Response types ---

type createOrderItemRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int32           `json:"qty"`
	Note  string          `json:"note"`
}

type createOrderRequest struct {
	TableNo string                   `json:"table_no"`
	Items   []createOrderItemRequest `json:"items"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// --- Handlers ---

// Create handles POST /orders: a tableside submission.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	items := make([]service.SubmitItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = service.SubmitItem{
			Name:  item.Name,
			Price: item.Price,
			Qty:   item.Qty,
			Note:  item.Note,
		}
	}

	order, err := h.svc.Submit(r.Context(), service.SubmitOrderRequest{
		TableNo: req.TableNo,
		Items:   items,
	})
	if err != nil {
		writeServiceError(w, "create order", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicOrders, service.TableTopic(order.TableNo))
	writeJSON(w, http.StatusCreated, order)
}

// List handles GET /orders. With ?table= it narrows to one table's
// live orders, newest first; without it, the whole ledger oldest
// first (kitchen work order).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		orders []database.Order
		err    error
	)
	if tableNo := r.URL.Query().Get("table"); tableNo != "" {
		orders, err = h.store.ListOrdersByTable(r.Context(), tableNo)
	} else {
		orders, err = h.store.ListLiveOrders(r.Context())
	}
	if err != nil {
		writeServiceError(w, "list orders", err)
		return
	}
	if orders == nil {
		orders = []database.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PATCH /orders/{id}/status. The only inbound
// transition is kitchen -> cooked; serving has its own endpoint
// because it moves the order out of the ledger.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status != enum.OrderStatusCooked {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be 'cooked'"})
		return
	}

	order, err := h.svc.MarkCooked(r.Context(), id)
	if err != nil {
		writeServiceError(w, "update order status", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicOrders, service.TableTopic(order.TableNo))
	writeJSON(w, http.StatusOK, order)
}

// Serve handles POST /orders/{id}/serve: archive the order into
// history and drop it from the ledger.
func (h *OrderHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	record, err := h.svc.Serve(r.Context(), id)
	if err != nil {
		writeServiceError(w, "serve order", err)
		return
	}

	// Lower the remembered counts before the post-archive snapshot
	// goes out, so the next arrival still alerts.
	h.feed.DecrementOrderAlerts()
	h.feed.Publish(r.Context(),
		service.TopicOrders,
		service.TableTopic(record.TableNo),
		service.HistoryTopic(record.DateLabel),
	)
	writeJSON(w, http.StatusOK, record)
}

// Cancel handles DELETE /orders/{id}. Only kitchen-state orders can
// be cancelled; a cooked order is already someone's food.
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.svc.Cancel(r.Context(), id)
	if err != nil {
		writeServiceError(w, "cancel order", err)
		return
	}

	h.feed.Publish(r.Context(), service.TopicOrders, service.TableTopic(order.TableNo))
	w.WriteHeader(http.StatusNoContent)
}
