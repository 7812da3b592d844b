package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
)

// Serve wraps the archive copy and the ledger removal in one
// transaction; losing the removal would leave a zombie live order, so
// the whole transaction is retried on transient store errors before
// the failure is surfaced.
const maxServeRetries = 3

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store defines the DB methods the ledger service needs.
// Satisfied by *database.Queries (and its WithTx variant).
type Store interface {
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	SetOrderCooked(ctx context.Context, id uuid.UUID) (database.Order, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteOrderIfKitchen(ctx context.Context, id uuid.UUID) (int64, error)
	CreateHistoryRecord(ctx context.Context, arg database.CreateHistoryRecordParams) (database.HistoryRecord, error)
	ListHistoryByDate(ctx context.Context, dateLabel string) ([]database.HistoryRecord, error)
	DeleteHistoryByDate(ctx context.Context, dateLabel string) (int64, error)
	CreateDailySummary(ctx context.Context, arg database.CreateDailySummaryParams) (database.DailySummary, error)
}

// NewStore creates a Store from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewStore func(db database.DBTX) Store

// SubmitItem is one cart line of a submission. The name carries any
// composed customization; price is the final per-unit price.
type SubmitItem struct {
	Name  string
	Price decimal.Decimal
	Qty   int32
	Note  string
}

// SubmitOrderRequest is the validated input for submitting an order.
type SubmitOrderRequest struct {
	TableNo string
	Items   []SubmitItem
}

// LedgerService owns the order state machine: submit, cancel,
// mark-cooked, and the archive transition into history.
type LedgerService struct {
	store    Store // pool-backed, for single-statement operations
	pool     TxBeginner
	newStore NewStore
	loc      *time.Location
	now      func() time.Time
}

// NewLedgerService creates a LedgerService. loc is the shop's
// timezone, used for archival date labels.
func NewLedgerService(store Store, pool TxBeginner, newStore NewStore, loc *time.Location) *LedgerService {
	if loc == nil {
		loc = time.Local
	}
	return &LedgerService{
		store:    store,
		pool:     pool,
		newStore: newStore,
		loc:      loc,
		now:      time.Now,
	}
}

// DateLabel returns today's archival partition key in the shop's
// timezone.
func (s *LedgerService) DateLabel() string {
	return s.now().In(s.loc).Format("2006-01-02")
}

// Submit validates a new order and creates it with status 'kitchen'.
// total_price is computed server-side as the sum of price times qty.
func (s *LedgerService) Submit(ctx context.Context, req SubmitOrderRequest) (database.Order, error) {
	if req.TableNo == "" {
		return database.Order{}, ErrTableRequired
	}
	if len(req.Items) == 0 {
		return database.Order{}, ErrEmptyItems
	}

	lines := make([]database.CartLine, len(req.Items))
	total := decimal.Zero
	for i, item := range req.Items {
		if item.Name == "" {
			return database.Order{}, fmt.Errorf("item[%d]: %w", i, ErrItemNameRequired)
		}
		if item.Price.IsNegative() {
			return database.Order{}, fmt.Errorf("item[%d]: %w", i, ErrNegativePrice)
		}
		qty := item.Qty
		if qty < 0 {
			return database.Order{}, fmt.Errorf("item[%d]: %w", i, ErrInvalidQuantity)
		}
		if qty == 0 {
			qty = 1
		}
		lines[i] = database.CartLine{
			Name:  item.Name,
			Price: item.Price,
			Qty:   qty,
			Note:  item.Note,
		}
		total = total.Add(item.Price.Mul(decimal.NewFromInt32(qty)))
	}

	order, err := s.store.CreateOrder(ctx, database.CreateOrderParams{
		TableNo:    req.TableNo,
		Items:      lines,
		TotalPrice: total,
	})
	if err != nil {
		return database.Order{}, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// Cancel removes a live order that is still in the kitchen state and
// returns the removed order. A cancelled order leaves no trace in
// history or summaries. Cooked orders are not cancellable; the
// kitchen already did the work.
func (s *LedgerService) Cancel(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}

	n, err := s.store.DeleteOrderIfKitchen(ctx, id)
	if err != nil {
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	if n > 0 {
		return order, nil
	}

	// Nothing deleted: the order raced away or is already cooked.
	if _, err := s.store.GetOrder(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	return database.Order{}, ErrOrderNotCancellable
}

// MarkCooked moves an order from kitchen to cooked. Idempotent:
// marking an already-cooked order is a no-op, not an error.
func (s *LedgerService) MarkCooked(ctx context.Context, id uuid.UUID) (database.Order, error) {
	order, err := s.store.SetOrderCooked(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Order{}, ErrOrderNotFound
		}
		return database.Order{}, fmt.Errorf("mark cooked: %w", err)
	}
	return order, nil
}

// Serve archives a live order: copy it into history under today's
// date label, then remove it from the ledger, atomically. Valid from
// both kitchen and cooked states.
func (s *LedgerService) Serve(ctx context.Context, id uuid.UUID) (database.HistoryRecord, error) {
	var lastErr error
	for attempt := 0; attempt < maxServeRetries; attempt++ {
		record, err := s.serveTx(ctx, id)
		if err == nil {
			return record, nil
		}
		if IsTransient(err) {
			lastErr = err
			continue
		}
		return database.HistoryRecord{}, err
	}
	return database.HistoryRecord{}, lastErr
}

// serveTx executes one archive attempt in a single transaction.
func (s *LedgerService) serveTx(ctx context.Context, id uuid.UUID) (database.HistoryRecord, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.HistoryRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	order, err := store.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.HistoryRecord{}, ErrOrderNotFound
		}
		return database.HistoryRecord{}, fmt.Errorf("get order: %w", err)
	}

	record, err := store.CreateHistoryRecord(ctx, database.CreateHistoryRecordParams{
		OrderID:    order.ID,
		TableNo:    order.TableNo,
		Items:      order.Items,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
		DateLabel:  s.DateLabel(),
	})
	if err != nil {
		return database.HistoryRecord{}, fmt.Errorf("archive order: %w", err)
	}

	n, err := store.DeleteOrder(ctx, id)
	if err != nil {
		return database.HistoryRecord{}, fmt.Errorf("remove archived order: %w", err)
	}
	if n == 0 {
		// Raced with another archiver; roll back our copy.
		return database.HistoryRecord{}, ErrOrderNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return database.HistoryRecord{}, fmt.Errorf("commit tx: %w", err)
	}
	return record, nil
}
