package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, table_no, items, total_price, status, created_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o     Order
		items []byte
		total pgtype.Numeric
	)
	if err := row.Scan(&o.ID, &o.TableNo, &items, &total, &o.Status, &o.CreatedAt); err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("decode order items: %w", err)
	}
	o.TotalPrice = NumericToDecimal(total)
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateOrderParams are the fields the caller supplies for a new
// order; id, status, and created_at are server-assigned.
type CreateOrderParams struct {
	TableNo    string
	Items      []CartLine
	TotalPrice decimal.Decimal
}

// CreateOrder inserts a live order with status 'kitchen' and a
// server-assigned timestamp.
func (q *Queries) CreateOrder(ctx context.Context, arg CreateOrderParams) (Order, error) {
	items, err := json.Marshal(arg.Items)
	if err != nil {
		return Order{}, fmt.Errorf("encode order items: %w", err)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO orders (table_no, items, total_price)
		VALUES ($1, $2, $3)
		RETURNING `+orderColumns,
		arg.TableNo, items, DecimalToNumeric(arg.TotalPrice),
	)
	return scanOrder(row)
}

// GetOrder fetches one live order by id.
func (q *Queries) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	return scanOrder(row)
}

// ListLiveOrders returns every live order ascending by creation time,
// the ordering the kitchen and admin views consume.
func (q *Queries) ListLiveOrders(ctx context.Context) ([]Order, error) {
	rows, err := q.db.Query(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListOrdersByTable returns one table's live orders, newest first,
// the ordering the customer view consumes.
func (q *Queries) ListOrdersByTable(ctx context.Context, tableNo string) ([]Order, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE table_no = $1
		ORDER BY created_at DESC`, tableNo)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// SetOrderCooked moves an order to 'cooked'. Updating an
// already-cooked order is a no-op rewrite of the same value, which
// keeps the transition idempotent.
func (q *Queries) SetOrderCooked(ctx context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE orders SET status = 'cooked'
		WHERE id = $1
		RETURNING `+orderColumns, id)
	return scanOrder(row)
}

// DeleteOrder removes a live order unconditionally, returning the
// number of rows removed. Used only inside the archive transaction.
func (q *Queries) DeleteOrder(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteOrderIfKitchen removes a live order only while it is still in
// the kitchen state. A zero row count means the order is either gone
// or already cooked; the caller disambiguates.
func (q *Queries) DeleteOrderIfKitchen(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM orders WHERE id = $1 AND status = 'kitchen'`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
