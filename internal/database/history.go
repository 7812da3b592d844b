package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const historyColumns = `id, order_id, table_no, items, total_price, status, created_at, finished_at, date_label`

func scanHistoryRecord(row pgx.Row) (HistoryRecord, error) {
	var (
		h     HistoryRecord
		items []byte
		total pgtype.Numeric
	)
	if err := row.Scan(&h.ID, &h.OrderID, &h.TableNo, &items, &total,
		&h.Status, &h.CreatedAt, &h.FinishedAt, &h.DateLabel); err != nil {
		return HistoryRecord{}, err
	}
	if err := json.Unmarshal(items, &h.Items); err != nil {
		return HistoryRecord{}, fmt.Errorf("decode history items: %w", err)
	}
	h.TotalPrice = NumericToDecimal(total)
	return h, nil
}

// CreateHistoryRecordParams carries the order copy being archived.
type CreateHistoryRecordParams struct {
	OrderID    uuid.UUID
	TableNo    string
	Items      []CartLine
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
	DateLabel  string
}

// CreateHistoryRecord appends an archived copy of a served order.
// Append-only and duplicate-unaware; at-most-once archival per order
// is the archive transaction's responsibility.
func (q *Queries) CreateHistoryRecord(ctx context.Context, arg CreateHistoryRecordParams) (HistoryRecord, error) {
	items, err := json.Marshal(arg.Items)
	if err != nil {
		return HistoryRecord{}, fmt.Errorf("encode history items: %w", err)
	}
	row := q.db.QueryRow(ctx, `
		INSERT INTO history_orders (order_id, table_no, items, total_price, created_at, date_label)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+historyColumns,
		arg.OrderID, arg.TableNo, items, DecimalToNumeric(arg.TotalPrice),
		arg.CreatedAt, arg.DateLabel,
	)
	return scanHistoryRecord(row)
}

// ListHistoryByDate returns one date's archived records, most
// recently finished first.
func (q *Queries) ListHistoryByDate(ctx context.Context, dateLabel string) ([]HistoryRecord, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+historyColumns+` FROM history_orders
		WHERE date_label = $1
		ORDER BY finished_at DESC`, dateLabel)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []HistoryRecord
	for rows.Next() {
		h, err := scanHistoryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, h)
	}
	return records, rows.Err()
}

// DeleteHistoryByDate purges one date's archived records, returning
// the number removed. Used only by day-close.
func (q *Queries) DeleteHistoryByDate(ctx context.Context, dateLabel string) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM history_orders WHERE date_label = $1`, dateLabel)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
