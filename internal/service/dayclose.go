package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
)

// topMenuSize is how many best sellers the summary names.
const topMenuSize = 3

// CloseDay folds every history record of one date label into a single
// daily summary and purges the folded records, all in one transaction.
// Closing a date with no history returns ErrEmptyDay and writes
// nothing.
func (s *LedgerService) CloseDay(ctx context.Context, dateLabel string) (database.DailySummary, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.DailySummary{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	records, err := store.ListHistoryByDate(ctx, dateLabel)
	if err != nil {
		return database.DailySummary{}, fmt.Errorf("list history: %w", err)
	}
	if len(records) == 0 {
		return database.DailySummary{}, ErrEmptyDay
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.TotalPrice)
	}

	summary, err := store.CreateDailySummary(ctx, database.CreateDailySummaryParams{
		DateString:  DisplayDate(dateLabel),
		DateLabel:   dateLabel,
		TotalSales:  total,
		TotalOrders: int32(len(records)),
		TopMenu:     TopMenu(records),
	})
	if err != nil {
		return database.DailySummary{}, fmt.Errorf("create summary: %w", err)
	}

	purged, err := store.DeleteHistoryByDate(ctx, dateLabel)
	if err != nil {
		return database.DailySummary{}, fmt.Errorf("purge history: %w", err)
	}
	if purged != int64(len(records)) {
		return database.DailySummary{}, fmt.Errorf("purge removed %d of %d records for %s", purged, len(records), dateLabel)
	}

	if err := tx.Commit(ctx); err != nil {
		return database.DailySummary{}, fmt.Errorf("commit tx: %w", err)
	}
	return summary, nil
}

// TopMenu ranks item names by total quantity across the day's records
// and renders the top sellers as "name(qty)" joined with ", ". Ties
// keep first-encountered order so the ranking is stable across runs.
func TopMenu(records []database.HistoryRecord) string {
	counts := make(map[string]int64)
	var names []string
	for _, r := range records {
		for _, item := range r.Items {
			qty := int64(item.Qty)
			if qty < 1 {
				qty = 1
			}
			if _, seen := counts[item.Name]; !seen {
				names = append(names, item.Name)
			}
			counts[item.Name] += qty
		}
	}

	sort.SliceStable(names, func(i, j int) bool {
		return counts[names[i]] > counts[names[j]]
	})
	if len(names) > topMenuSize {
		names = names[:topMenuSize]
	}

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s(%d)", name, counts[name])
	}
	return strings.Join(parts, ", ")
}

// DisplayDate renders a date label as a Thai display date, d/m/yyyy
// with the Buddhist-era year. Unparseable labels pass through as-is.
func DisplayDate(dateLabel string) string {
	t, err := time.Parse("2006-01-02", dateLabel)
	if err != nil {
		return dateLabel
	}
	return fmt.Sprintf("%d/%d/%d", t.Day(), int(t.Month()), t.Year()+543)
}
