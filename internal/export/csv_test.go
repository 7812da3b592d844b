package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/aroi-pos/api/internal/database"
)

func TestWriteSummaryCSV(t *testing.T) {
	summary := database.DailySummary{
		DateString:  "29/8/2569",
		DateLabel:   "2026-08-29",
		TotalSales:  decimal.RequireFromString("1240.50"),
		TotalOrders: 17,
		TopMenu:     "ผัดไทย(9), ข้าวผัด(5), ชาเย็น(4)",
	}

	var buf bytes.Buffer
	if err := WriteSummaryCSV(&buf, summary); err != nil {
		t.Fatalf("WriteSummaryCSV: %v", err)
	}

	out := buf.Bytes()
	if !bytes.HasPrefix(out, utf8BOM) {
		t.Error("output missing UTF-8 BOM")
	}

	lines := strings.Split(strings.TrimRight(string(out[len(utf8BOM):]), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), lines)
	}
	if lines[0] != "Date,Total Sales,Bills,Top Menu" {
		t.Errorf("header: got %q", lines[0])
	}
	if lines[1] != `29/8/2569,1240.50,17,"ผัดไทย(9), ข้าวผัด(5), ชาเย็น(4)"` {
		t.Errorf("row: got %q", lines[1])
	}
}

func TestSummaryFilename(t *testing.T) {
	summary := database.DailySummary{DateLabel: "2026-08-29"}
	if got, want := SummaryFilename(summary), "sales_2026-08-29.csv"; got != want {
		t.Errorf("filename: got %q, want %q", got, want)
	}
}
