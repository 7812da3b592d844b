package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const summaryColumns = `id, date_string, date_label, total_sales, total_orders, top_menu, created_at`

func scanDailySummary(row pgx.Row) (DailySummary, error) {
	var (
		s     DailySummary
		total pgtype.Numeric
	)
	if err := row.Scan(&s.ID, &s.DateString, &s.DateLabel, &total,
		&s.TotalOrders, &s.TopMenu, &s.CreatedAt); err != nil {
		return DailySummary{}, err
	}
	s.TotalSales = NumericToDecimal(total)
	return s, nil
}

// CreateDailySummaryParams is the aggregate computed by day-close.
type CreateDailySummaryParams struct {
	DateString  string
	DateLabel   string
	TotalSales  decimal.Decimal
	TotalOrders int32
	TopMenu     string
}

// CreateDailySummary inserts one closed-day aggregate record.
func (q *Queries) CreateDailySummary(ctx context.Context, arg CreateDailySummaryParams) (DailySummary, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO daily_sales (date_string, date_label, total_sales, total_orders, top_menu)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+summaryColumns,
		arg.DateString, arg.DateLabel, DecimalToNumeric(arg.TotalSales),
		arg.TotalOrders, arg.TopMenu,
	)
	return scanDailySummary(row)
}

// GetDailySummary fetches one summary by id.
func (q *Queries) GetDailySummary(ctx context.Context, id uuid.UUID) (DailySummary, error) {
	row := q.db.QueryRow(ctx, `SELECT `+summaryColumns+` FROM daily_sales WHERE id = $1`, id)
	return scanDailySummary(row)
}

// ListDailySummaries returns every summary, newest first.
func (q *Queries) ListDailySummaries(ctx context.Context) ([]DailySummary, error) {
	rows, err := q.db.Query(ctx, `SELECT `+summaryColumns+` FROM daily_sales ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		s, err := scanDailySummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteDailySummary removes one summary, returning the rows removed.
// A deleted summary cannot be regenerated; its history is gone.
func (q *Queries) DeleteDailySummary(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM daily_sales WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
