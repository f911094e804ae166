// Package store defines the Record Store boundary shared by every backend.
package store

import (
	"context"

	"expensetracker/internal/core"
)

type (
	ExpenseCreator interface {
		// Create persists e and returns the id the store assigned to it.
		Create(ctx context.Context, e core.NewExpense) (int64, error)
	}

	ExpenseLister interface {
		// ListAll returns every record in insertion order.
		ListAll(ctx context.Context) ([]core.Expense, error)
		// ListFiltered returns the records whose date or category contains
		// substring (case-sensitive). An empty substring returns all records.
		ListFiltered(ctx context.Context, substring string) ([]core.Expense, error)
	}

	ExpenseGetter interface {
		// Get returns core.ErrNotFound when id does not exist.
		Get(ctx context.Context, id int64) (core.Expense, error)
	}

	ExpenseDeleter interface {
		// Delete removes the record. Deleting an absent id is not an error.
		Delete(ctx context.Context, id int64) error
	}

	// RecordStore is the full persistence boundary for expense entries.
	RecordStore interface {
		ExpenseCreator
		ExpenseLister
		ExpenseGetter
		ExpenseDeleter
		Ping(ctx context.Context) error
		Close() error
	}
)
