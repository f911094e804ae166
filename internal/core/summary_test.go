package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTotal(t *testing.T) {
	if got := Total(nil); !got.Equal(decimal.Zero) {
		t.Fatalf("Total(nil) = %s, want 0", got)
	}

	records := []Expense{
		{ID: 1, Date: "2024-01-05", Item: "Coffee", Amount: amt("3.50"), Category: "Food"},
		{ID: 2, Date: "2024-02-10", Item: "Bus", Amount: amt("2.00"), Category: "Transport"},
		{ID: 3, Date: "2024-02-11", Item: "Refund", Amount: amt("-1.25"), Category: "Food"},
	}
	want := amt("4.25")
	if got := Total(records); !got.Equal(want) {
		t.Fatalf("Total = %s, want %s", got, want)
	}

	reversed := []Expense{records[2], records[1], records[0]}
	if got := Total(reversed); !got.Equal(want) {
		t.Fatalf("Total over reordered input = %s, want %s", got, want)
	}
}

func TestNewLedger(t *testing.T) {
	records := []Expense{
		{ID: 1, Date: "2024-01-05", Amount: amt("3.50")},
		{ID: 2, Date: "2024-02-10", Amount: amt("2.00")},
	}
	l := NewLedger("2024", records)
	if l.Filter != "2024" || len(l.Records) != 2 {
		t.Fatalf("unexpected ledger: %+v", l)
	}
	if !l.Total.Equal(amt("5.50")) {
		t.Fatalf("ledger total = %s, want 5.50", l.Total)
	}
}

func TestSeries(t *testing.T) {
	records := []Expense{
		{ID: 2, Date: "2024-02-10", Amount: amt("2.00")},
		{ID: 1, Date: "2024-01-05", Amount: amt("3.50")},
	}
	points, err := Series(records)
	if err != nil {
		t.Fatalf("Series: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if !points[0].Date.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)) || !points[0].Amount.Equal(amt("2")) {
		t.Fatalf("unexpected first point: %+v", points[0])
	}
	if !points[1].Date.Equal(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("series must keep input order: %+v", points[1])
	}
}

func TestSeriesEmpty(t *testing.T) {
	points, err := Series(nil)
	if err != nil || len(points) != 0 {
		t.Fatalf("expected empty series, got %v (err=%v)", points, err)
	}
}

func TestSeriesUnparseableDate(t *testing.T) {
	records := []Expense{
		{ID: 1, Date: "2024-01-05", Amount: amt("3.50")},
		{ID: 2, Date: "05/01/2024", Amount: amt("2.00")},
		{ID: 3, Date: "2024-02-30", Amount: amt("1.00")},
	}
	points, err := Series(records)
	if points != nil {
		t.Fatalf("expected no partial output, got %v", points)
	}
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Field != "date" || pe.Value != "05/01/2024" {
		t.Fatalf("expected date ParseError for second record, got %v", err)
	}
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
