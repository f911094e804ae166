package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the view the front-end shows: the visible records and their total.
// It is rebuilt from the store on every read.
type Ledger struct {
	Filter  string
	Records []Expense
	Total   decimal.Decimal
}

// SeriesPoint is one (date, amount) pair of the amount-over-time chart.
type SeriesPoint struct {
	Date   time.Time
	Amount decimal.Decimal
}

// NewLedger builds the ledger view for records selected by filter.
func NewLedger(filter string, records []Expense) Ledger {
	return Ledger{
		Filter:  filter,
		Records: records,
		Total:   Total(records),
	}
}

// Total sums the amounts of records. An empty slice totals zero.
func Total(records []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}
	return total
}

// Series returns one point per record in input order. It fails on the first
// date that is not YYYY-MM-DD and returns no points in that case.
func Series(records []Expense) ([]SeriesPoint, error) {
	points := make([]SeriesPoint, 0, len(records))
	for _, r := range records {
		d, err := time.Parse(DateLayout, r.Date)
		if err != nil {
			return nil, &ParseError{Field: "date", Value: r.Date, Err: ErrInvalidDate}
		}
		points = append(points, SeriesPoint{Date: d, Amount: r.Amount})
	}
	return points, nil
}
