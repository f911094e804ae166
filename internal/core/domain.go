package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual form dates are entered and stored in.
const DateLayout = "2006-01-02"

type (
	// Expense is a persisted expense record. ID is assigned by the store.
	Expense struct {
		ID       int64
		Date     string
		Item     string
		Amount   decimal.Decimal
		Category string
	}

	// NewExpense is an expense that passed input validation but has no ID yet.
	NewExpense struct {
		Date     string
		Item     string
		Amount   decimal.Decimal
		Category string
	}

	// ExpenseInput holds the raw strings a user submitted.
	ExpenseInput struct {
		Date     string
		Item     string
		Amount   string
		Category string
	}
)

var (
	ErrValidation    = errors.New("validation error")
	ErrParse         = errors.New("parse error")
	ErrInvalidAmount = errors.New("amount must be a number")
	ErrInvalidDate   = errors.New("date must be in YYYY-MM-DD form")
	ErrNotFound      = errors.New("expense not found")
	ErrNoData        = errors.New("no expenses to show")
)

// ValidationError reports a required field left empty.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// ParseError reports a field whose text could not be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// Parse validates the submitted strings and converts the amount.
// Fields are checked in form order so the first missing one is reported.
// Whitespace-only counts as missing, but text is kept exactly as entered.
func (in ExpenseInput) Parse() (NewExpense, error) {
	switch {
	case strings.TrimSpace(in.Date) == "":
		return NewExpense{}, &ValidationError{Field: "date"}
	case strings.TrimSpace(in.Item) == "":
		return NewExpense{}, &ValidationError{Field: "item"}
	case strings.TrimSpace(in.Amount) == "":
		return NewExpense{}, &ValidationError{Field: "amount"}
	case strings.TrimSpace(in.Category) == "":
		return NewExpense{}, &ValidationError{Field: "category"}
	}

	value, err := ParseAmount(in.Amount)
	if err != nil {
		return NewExpense{}, err
	}

	return NewExpense{
		Date:     in.Date,
		Item:     in.Item,
		Amount:   value,
		Category: in.Category,
	}, nil
}

// WithID attaches a store-assigned id.
func (e NewExpense) WithID(id int64) Expense {
	return Expense{
		ID:       id,
		Date:     e.Date,
		Item:     e.Item,
		Amount:   e.Amount,
		Category: e.Category,
	}
}

// Matches reports whether date or category contains the filter text.
// Matching is case-sensitive and an empty filter matches everything.
func (e Expense) Matches(filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(e.Date, filter) || strings.Contains(e.Category, filter)
}
