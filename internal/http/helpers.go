package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"expensetracker/internal/core"
)

// sanitizeInput drops control characters other than tab, newline and CR.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// expenseRow is one table row as the templates and the JSON API render it.
type expenseRow struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"`
	Item     string `json:"item"`
	Amount   string `json:"amount"`
	Display  string `json:"-"`
	Category string `json:"category"`
	Negative bool   `json:"-"`
}

// ledgerView is the table partial's data and the /api/expenses body.
type ledgerView struct {
	Filter       string       `json:"filter"`
	Total        string       `json:"total"`
	TotalDisplay string       `json:"-"`
	Count        int          `json:"count"`
	Records      []expenseRow `json:"records"`
}

func newLedgerView(l core.Ledger, symbol string) ledgerView {
	rows := make([]expenseRow, 0, len(l.Records))
	for _, e := range l.Records {
		rows = append(rows, expenseRow{
			ID:       e.ID,
			Date:     e.Date,
			Item:     e.Item,
			Amount:   e.Amount.StringFixed(2),
			Display:  core.FormatAmount(e.Amount, symbol),
			Category: e.Category,
			Negative: e.Amount.IsNegative(),
		})
	}
	return ledgerView{
		Filter:       l.Filter,
		Total:        l.Total.StringFixed(2),
		TotalDisplay: core.FormatAmount(l.Total, symbol),
		Count:        len(rows),
		Records:      rows,
	}
}

// seriesPoint is one chart point. Amount is a plain number so Chart.js can
// plot it directly.
type seriesPoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

func newSeriesPoints(points []core.SeriesPoint) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{
			Date:   p.Date.Format(core.DateLayout),
			Amount: p.Amount.InexactFloat64(),
		})
	}
	return out
}

// userError maps a service error to a status, a message for the user and the
// offending field, if any.
func userError(err error) (status int, message, field string) {
	var ve *core.ValidationError
	var pe *core.ParseError
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Please fill in the %s field", ve.Field), ve.Field
	case errors.As(err, &pe) && pe.Field == "amount":
		return http.StatusUnprocessableEntity, fmt.Sprintf("Amount %q is not a number", pe.Value), pe.Field
	case errors.As(err, &pe):
		return http.StatusUnprocessableEntity, fmt.Sprintf("Date %q is not in YYYY-MM-DD form", pe.Value), pe.Field
	case errors.Is(err, core.ErrNoData):
		return http.StatusNotFound, "No expenses to show", ""
	case errors.Is(err, errMissingID), errors.Is(err, errInvalidID):
		return http.StatusBadRequest, err.Error(), "id"
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again", ""
	}
}
