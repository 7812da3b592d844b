package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
)

// errTimeout satisfies net.Error for transient-failure tests.
type errTimeout struct{}

func (errTimeout) Error() string   { return "i/o timeout" }
func (errTimeout) Timeout() bool   { return true }
func (errTimeout) Temporary() bool { return true }

// mockTx implements just enough of pgx.Tx for the service paths.
type mockTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *mockTx) Commit(_ context.Context) error {
	m.committed = true
	return nil
}

func (m *mockTx) Rollback(_ context.Context) error {
	if !m.committed {
		m.rolledBack = true
	}
	return nil
}

type mockTxBeginner struct {
	tx       *mockTx
	beginErr error
}

func (m *mockTxBeginner) Begin(_ context.Context) (pgx.Tx, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	m.tx = &mockTx{}
	return m.tx, nil
}

// mockStore records calls and returns canned results.
type mockStore struct {
	orders map[uuid.UUID]database.Order

	created        []database.CreateOrderParams
	archived       []database.CreateHistoryRecordParams
	deleted        []uuid.UUID
	deleteIfResult int64

	history   []database.HistoryRecord
	purged    []string
	purgedN   int64
	summaries []database.CreateDailySummaryParams

	// failures, keyed by method name, consumed one call at a time
	failures map[string][]error
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:   make(map[uuid.UUID]database.Order),
		failures: make(map[string][]error),
	}
}

func (m *mockStore) failOnce(method string, err error) {
	m.failures[method] = append(m.failures[method], err)
}

func (m *mockStore) nextFailure(method string) error {
	q := m.failures[method]
	if len(q) == 0 {
		return nil
	}
	m.failures[method] = q[1:]
	return q[0]
}

func (m *mockStore) CreateOrder(_ context.Context, arg database.CreateOrderParams) (database.Order, error) {
	if err := m.nextFailure("CreateOrder"); err != nil {
		return database.Order{}, err
	}
	m.created = append(m.created, arg)
	order := database.Order{
		ID:         uuid.New(),
		TableNo:    arg.TableNo,
		Items:      arg.Items,
		TotalPrice: arg.TotalPrice,
		Status:     "kitchen",
		CreatedAt:  time.Now(),
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockStore) GetOrder(_ context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.nextFailure("GetOrder"); err != nil {
		return database.Order{}, err
	}
	order, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	return order, nil
}

func (m *mockStore) SetOrderCooked(_ context.Context, id uuid.UUID) (database.Order, error) {
	if err := m.nextFailure("SetOrderCooked"); err != nil {
		return database.Order{}, err
	}
	order, ok := m.orders[id]
	if !ok {
		return database.Order{}, pgx.ErrNoRows
	}
	order.Status = "cooked"
	m.orders[id] = order
	return order, nil
}

func (m *mockStore) DeleteOrder(_ context.Context, id uuid.UUID) (int64, error) {
	if err := m.nextFailure("DeleteOrder"); err != nil {
		return 0, err
	}
	if _, ok := m.orders[id]; !ok {
		return 0, nil
	}
	delete(m.orders, id)
	m.deleted = append(m.deleted, id)
	return 1, nil
}

func (m *mockStore) DeleteOrderIfKitchen(_ context.Context, id uuid.UUID) (int64, error) {
	if err := m.nextFailure("DeleteOrderIfKitchen"); err != nil {
		return 0, err
	}
	order, ok := m.orders[id]
	if !ok || order.Status != "kitchen" {
		return 0, nil
	}
	delete(m.orders, id)
	return 1, nil
}

func (m *mockStore) CreateHistoryRecord(_ context.Context, arg database.CreateHistoryRecordParams) (database.HistoryRecord, error) {
	if err := m.nextFailure("CreateHistoryRecord"); err != nil {
		return database.HistoryRecord{}, err
	}
	m.archived = append(m.archived, arg)
	return database.HistoryRecord{
		ID:         uuid.New(),
		OrderID:    arg.OrderID,
		TableNo:    arg.TableNo,
		Items:      arg.Items,
		TotalPrice: arg.TotalPrice,
		CreatedAt:  arg.CreatedAt,
		FinishedAt: time.Now(),
		DateLabel:  arg.DateLabel,
	}, nil
}

func (m *mockStore) ListHistoryByDate(_ context.Context, dateLabel string) ([]database.HistoryRecord, error) {
	if err := m.nextFailure("ListHistoryByDate"); err != nil {
		return nil, err
	}
	var out []database.HistoryRecord
	for _, r := range m.history {
		if r.DateLabel == dateLabel {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockStore) DeleteHistoryByDate(_ context.Context, dateLabel string) (int64, error) {
	if err := m.nextFailure("DeleteHistoryByDate"); err != nil {
		return 0, err
	}
	m.purged = append(m.purged, dateLabel)
	if m.purgedN != 0 {
		return m.purgedN, nil
	}
	var n int64
	for _, r := range m.history {
		if r.DateLabel == dateLabel {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CreateDailySummary(_ context.Context, arg database.CreateDailySummaryParams) (database.DailySummary, error) {
	if err := m.nextFailure("CreateDailySummary"); err != nil {
		return database.DailySummary{}, err
	}
	m.summaries = append(m.summaries, arg)
	return database.DailySummary{
		ID:          uuid.New(),
		DateString:  arg.DateString,
		DateLabel:   arg.DateLabel,
		TotalSales:  arg.TotalSales,
		TotalOrders: arg.TotalOrders,
		TopMenu:     arg.TopMenu,
		CreatedAt:   time.Now(),
	}, nil
}

func newTestService(store *mockStore) (*LedgerService, *mockTxBeginner) {
	pool := &mockTxBeginner{}
	svc := NewLedgerService(store, pool, func(_ database.DBTX) Store { return store }, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 8, 29, 13, 0, 0, 0, time.UTC) }
	return svc, pool
}

func TestSubmitComputesTotal(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, err := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "5",
		Items: []SubmitItem{
			{Name: "ก๋วยเตี๋ยวหมู (เส้นเล็ก)", Price: decimal.NewFromInt(50), Qty: 2},
			{Name: "น้ำเปล่า", Price: decimal.RequireFromString("15.50"), Qty: 1, Note: "ไม่เอาน้ำแข็ง"},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got, want := order.TotalPrice.StringFixed(2), "115.50"; got != want {
		t.Errorf("total: got %s, want %s", got, want)
	}
	if order.Status != "kitchen" {
		t.Errorf("status: got %q, want kitchen", order.Status)
	}
	if len(store.created) != 1 {
		t.Fatalf("created %d orders, want 1", len(store.created))
	}
}

func TestSubmitDefaultsZeroQtyToOne(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, err := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "2",
		Items:   []SubmitItem{{Name: "ข้าวผัด", Price: decimal.NewFromInt(60)}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if order.Items[0].Qty != 1 {
		t.Errorf("qty: got %d, want 1", order.Items[0].Qty)
	}
	if got := order.TotalPrice.StringFixed(2); got != "60.00" {
		t.Errorf("total: got %s, want 60.00", got)
	}
}

func TestSubmitValidation(t *testing.T) {
	item := SubmitItem{Name: "ชาเย็น", Price: decimal.NewFromInt(25), Qty: 1}
	tests := []struct {
		name    string
		req     SubmitOrderRequest
		wantErr error
	}{
		{"missing table", SubmitOrderRequest{Items: []SubmitItem{item}}, ErrTableRequired},
		{"empty items", SubmitOrderRequest{TableNo: "1"}, ErrEmptyItems},
		{"blank item name", SubmitOrderRequest{TableNo: "1", Items: []SubmitItem{{Price: decimal.NewFromInt(10), Qty: 1}}}, ErrItemNameRequired},
		{"negative price", SubmitOrderRequest{TableNo: "1", Items: []SubmitItem{{Name: "x", Price: decimal.NewFromInt(-5), Qty: 1}}}, ErrNegativePrice},
		{"negative qty", SubmitOrderRequest{TableNo: "1", Items: []SubmitItem{{Name: "x", Price: decimal.NewFromInt(5), Qty: -1}}}, ErrInvalidQuantity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			svc, _ := newTestService(store)
			_, err := svc.Submit(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false, want true", err)
			}
			if len(store.created) != 0 {
				t.Error("rejected request reached the store")
			}
		})
	}
}

func TestCancelKitchenOrder(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "3",
		Items:   []SubmitItem{{Name: "ข้าวกะเพรา", Price: decimal.NewFromInt(55), Qty: 1}},
	})

	cancelled, err := svc.Cancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.ID != order.ID || cancelled.TableNo != "3" {
		t.Errorf("cancelled order: got %+v", cancelled)
	}
	if _, ok := store.orders[order.ID]; ok {
		t.Error("order still in ledger after cancel")
	}
}

func TestCancelCookedOrderRejected(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "3",
		Items:   []SubmitItem{{Name: "ข้าวกะเพรา", Price: decimal.NewFromInt(55), Qty: 1}},
	})
	if _, err := svc.MarkCooked(context.Background(), order.ID); err != nil {
		t.Fatalf("MarkCooked: %v", err)
	}

	_, err := svc.Cancel(context.Background(), order.ID)
	if !errors.Is(err, ErrOrderNotCancellable) {
		t.Errorf("got %v, want ErrOrderNotCancellable", err)
	}
	if _, ok := store.orders[order.ID]; !ok {
		t.Error("cooked order was removed")
	}
}

func TestCancelMissingOrder(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	_, err := svc.Cancel(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
}

func TestMarkCookedIsIdempotent(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "7",
		Items:   []SubmitItem{{Name: "ต้มยำกุ้ง", Price: decimal.NewFromInt(120), Qty: 1}},
	})

	for i := 0; i < 2; i++ {
		got, err := svc.MarkCooked(context.Background(), order.ID)
		if err != nil {
			t.Fatalf("MarkCooked #%d: %v", i+1, err)
		}
		if got.Status != "cooked" {
			t.Errorf("status: got %q, want cooked", got.Status)
		}
	}
}

func TestMarkCookedMissingOrder(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	_, err := svc.MarkCooked(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
}

func TestServeArchivesAndRemoves(t *testing.T) {
	store := newMockStore()
	svc, pool := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "4",
		Items:   []SubmitItem{{Name: "ผัดไทย", Price: decimal.NewFromInt(70), Qty: 2}},
	})

	record, err := svc.Serve(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if record.OrderID != order.ID {
		t.Errorf("order_id: got %v, want %v", record.OrderID, order.ID)
	}
	if record.DateLabel != "2026-08-29" {
		t.Errorf("date_label: got %q, want 2026-08-29", record.DateLabel)
	}
	if !record.CreatedAt.Equal(order.CreatedAt) {
		t.Error("archived record lost the original submission time")
	}
	if _, ok := store.orders[order.ID]; ok {
		t.Error("order still in ledger after serve")
	}
	if !pool.tx.committed {
		t.Error("transaction not committed")
	}
}

func TestServeMissingOrder(t *testing.T) {
	store := newMockStore()
	svc, pool := newTestService(store)

	_, err := svc.Serve(context.Background(), uuid.New())
	if !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("got %v, want ErrOrderNotFound", err)
	}
	if pool.tx.committed {
		t.Error("transaction committed for a missing order")
	}
	if len(store.archived) != 0 {
		t.Error("missing order produced an archive record")
	}
}

func TestServeRetriesTransientFailure(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "4",
		Items:   []SubmitItem{{Name: "ผัดไทย", Price: decimal.NewFromInt(70), Qty: 1}},
	})

	store.failOnce("CreateHistoryRecord", &net.OpError{Op: "write", Err: errTimeout{}})

	record, err := svc.Serve(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Serve after transient failure: %v", err)
	}
	if record.OrderID != order.ID {
		t.Errorf("order_id: got %v, want %v", record.OrderID, order.ID)
	}
	if len(store.archived) != 1 {
		t.Fatalf("archived %d records, want 1", len(store.archived))
	}
}

func TestFullLifecycle(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	// Table 5 orders 120 baht worth of food.
	order, err := svc.Submit(ctx, SubmitOrderRequest{
		TableNo: "5",
		Items: []SubmitItem{
			{Name: "ก๋วยเตี๋ยวหมู", Price: decimal.NewFromInt(50), Qty: 2},
			{Name: "ชาเย็น", Price: decimal.NewFromInt(20), Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if got := order.TotalPrice.StringFixed(2); got != "120.00" {
		t.Fatalf("total: got %s, want 120.00", got)
	}

	if _, err := svc.MarkCooked(ctx, order.ID); err != nil {
		t.Fatalf("MarkCooked: %v", err)
	}

	record, err := svc.Serve(ctx, order.ID)
	if err != nil {
		t.Fatalf("Serve: %v", err)
	}
	if !record.TotalPrice.Equal(order.TotalPrice) || record.TableNo != "5" {
		t.Errorf("archived record diverged: %+v", record)
	}
	if len(store.orders) != 0 {
		t.Error("ledger not empty after serve")
	}

	// Once archived, the order can no longer be cancelled.
	if _, err := svc.Cancel(ctx, order.ID); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("cancel after archive: got %v, want ErrOrderNotFound", err)
	}

	store.history = []database.HistoryRecord{record}
	summary, err := svc.CloseDay(ctx, record.DateLabel)
	if err != nil {
		t.Fatalf("CloseDay: %v", err)
	}
	if got := summary.TotalSales.StringFixed(2); got != "120.00" {
		t.Errorf("total_sales: got %s, want 120.00", got)
	}
	if summary.TotalOrders != 1 {
		t.Errorf("total_orders: got %d, want 1", summary.TotalOrders)
	}
	if summary.TopMenu != "ก๋วยเตี๋ยวหมู(2), ชาเย็น(1)" {
		t.Errorf("top_menu: got %q", summary.TopMenu)
	}
}

func TestServePermanentFailureNotRetried(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	order, _ := svc.Submit(context.Background(), SubmitOrderRequest{
		TableNo: "4",
		Items:   []SubmitItem{{Name: "ผัดไทย", Price: decimal.NewFromInt(70), Qty: 1}},
	})

	permanent := errors.New("syntax error")
	store.failOnce("CreateHistoryRecord", permanent)
	store.failOnce("CreateHistoryRecord", permanent)

	_, err := svc.Serve(context.Background(), order.ID)
	if !errors.Is(err, permanent) {
		t.Fatalf("got %v, want wrapped permanent error", err)
	}
	if len(store.failures["CreateHistoryRecord"]) != 1 {
		t.Error("permanent failure was retried")
	}
}
