// Package export renders daily summaries as spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/aroi-pos/api/internal/database"
)

// utf8BOM makes Excel open the file as UTF-8 so Thai menu names
// survive the round trip.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var header = []string{"Date", "Total Sales", "Bills", "Top Menu"}

// WriteSummaryCSV writes one summary as a two-line CSV (header plus
// data row), BOM first.
func WriteSummaryCSV(w io.Writer, summary database.DailySummary) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := []string{
		summary.DateString,
		summary.TotalSales.StringFixed(2),
		fmt.Sprintf("%d", summary.TotalOrders),
		summary.TopMenu,
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

// SummaryFilename names the download after the summary's date label.
func SummaryFilename(summary database.DailySummary) string {
	return fmt.Sprintf("sales_%s.csv", summary.DateLabel)
}
