package sheets

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseAppender adds one expense row and returns a reference to it.
	ExpenseAppender interface {
		AppendExpense(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseRemover deletes the row carrying id. A missing row is not an error.
	ExpenseRemover interface {
		DeleteExpense(ctx context.Context, id int64) error
	}

	// IDLister returns the ids currently present in the mirror, in row order.
	IDLister interface {
		ListIDs(ctx context.Context) ([]int64, error)
	}

	// Mirror is an external copy of the ledger kept in sync by the worker.
	Mirror interface {
		ExpenseAppender
		ExpenseRemover
		IDLister
	}
)
