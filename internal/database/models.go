package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is one line of a submitted order. The name may encode a
// composed customization (noodle type, soup, size, extras) with the
// surcharge already folded into the per-unit price; the engine treats
// it as opaque text. Lines are immutable once the order is submitted.
type CartLine struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Qty   int32           `json:"qty"`
	Note  string          `json:"note,omitempty"`
}

// Order is a live order in the ledger. An order exists here if and
// only if it has not been served yet.
type Order struct {
	ID         uuid.UUID       `json:"id"`
	TableNo    string          `json:"table_no"`
	Items      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HistoryRecord is a served order, archived under a calendar date
// label until the day is closed.
type HistoryRecord struct {
	ID         uuid.UUID       `json:"id"`
	OrderID    uuid.UUID       `json:"order_id"`
	TableNo    string          `json:"table_no"`
	Items      []CartLine      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DateLabel  string          `json:"date_label"`
}

// DailySummary is the aggregate record produced by closing a day.
// Immutable except for deletion; the history it was computed from is
// purged in the same transaction.
type DailySummary struct {
	ID          uuid.UUID       `json:"id"`
	DateString  string          `json:"date_string"`
	DateLabel   string          `json:"date_label"`
	TotalSales  decimal.Decimal `json:"total_sales"`
	TotalOrders int32           `json:"total_orders"`
	TopMenu     string          `json:"top_menu"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Product is a menu catalog item.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Category  string          `json:"category"`
	Img       string          `json:"img"`
	Available bool            `json:"available"`
	CreatedAt time.Time       `json:"created_at"`
}

// ShopConfig is the single-row shop configuration.
type ShopConfig struct {
	Categories   []string  `json:"categories"`
	AdminPinHash string    `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}
