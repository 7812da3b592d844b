package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aroi-pos/api/internal/config"
	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/enum"
	"github.com/aroi-pos/api/internal/handler"
	mw "github.com/aroi-pos/api/internal/middleware"
	"github.com/aroi-pos/api/internal/service"
	"github.com/aroi-pos/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Tableside reads and the order lifecycle stay open so shop devices
// work without a login; destructive admin operations sit behind the
// PIN-issued token.
func New(cfg *config.Config, queries *database.Queries, hub *ws.Hub, feed *service.Feed, ledger *service.LedgerService) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration: viewers are tableside devices on the shop
	// LAN, so any origin is accepted.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	admin := chi.Middlewares{
		mw.Authenticate(cfg.JWTSecret),
		mw.RequireRole(enum.RoleAdmin),
	}

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route; subscription topics ride the query string and
	// in-band control frames.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, feed, w, r)
	})

	// Orders: submission and lifecycle are open to shop devices.
	orderHandler := handler.NewOrderHandler(ledger, queries, feed)
	r.Route("/orders", orderHandler.RegisterRoutes)

	// History reads are open; closing a day is an admin operation.
	historyHandler := handler.NewHistoryHandler(ledger, queries, feed)
	r.Route("/history", func(r chi.Router) {
		historyHandler.RegisterRoutes(r)
		r.With(admin...).Post("/{date}/close", historyHandler.CloseDay)
	})

	summaryHandler := handler.NewSummaryHandler(queries, feed)
	r.Route("/summaries", func(r chi.Router) {
		summaryHandler.RegisterRoutes(r)
		r.With(admin...).Delete("/{id}", summaryHandler.Delete)
	})

	productHandler := handler.NewProductHandler(queries, feed)
	r.Route("/products", func(r chi.Router) {
		productHandler.RegisterReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(admin...)
			productHandler.RegisterAdminRoutes(r)
		})
	})

	settingsHandler := handler.NewSettingsHandler(queries, feed)
	r.Route("/settings", func(r chi.Router) {
		settingsHandler.RegisterReadRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(admin...)
			settingsHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}
