// Package core provides the expense domain model and the aggregation helpers
// the front-end uses to show totals and charts.
//
// This file contains amount parsing and formatting.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts must fit in a REAL column without losing their integer part.
const (
	maxAmountIntegerDigits  = 15
	maxAmountFractionDigits = 10
)

// ParseAmount converts user-entered text into a decimal amount.
//
// Surrounding whitespace is ignored. A comma followed by one or two digits
// is read as a decimal comma; "1,000" is rejected rather than guessed at.
// Refunds can be recorded as negative amounts. Exponent notation is accepted
// within the same bounds as plain digits.
//
// Examples:
//
//	ParseAmount("3.50")  -> 3.5, nil
//	ParseAmount("3,50")  -> 3.5, nil
//	ParseAmount("-2")    -> -2, nil
//	ParseAmount("1e400") -> 0, *ParseError
//	ParseAmount("three") -> 0, *ParseError
func ParseAmount(s string) (decimal.Decimal, error) {
	raw := s
	invalid := &ParseError{Field: "amount", Value: raw, Err: ErrInvalidAmount}

	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, invalid
	}
	if isDecimalComma(s) {
		s = strings.Replace(s, ",", ".", 1)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, invalid
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.NumDigits()+int(d.Exponent()) > maxAmountIntegerDigits || d.Exponent() < -maxAmountFractionDigits {
		return decimal.Zero, invalid
	}
	return d, nil
}

// isDecimalComma reports whether s has exactly one comma, no dot, and one or
// two digits after the comma.
func isDecimalComma(s string) bool {
	if strings.Count(s, ",") != 1 || strings.Contains(s, ".") {
		return false
	}
	frac := s[strings.IndexByte(s, ',')+1:]
	if len(frac) < 1 || len(frac) > 2 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatAmount renders an amount with two decimals behind the currency symbol,
// e.g. "$5.50" or "-$2.00".
func FormatAmount(d decimal.Decimal, symbol string) string {
	if d.IsNegative() {
		return "-" + symbol + d.Neg().StringFixed(2)
	}
	return symbol + d.StringFixed(2)
}
