package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
)

// Mirror keeps mirrored rows in process. Used when no spreadsheet is
// configured and in tests.
type Mirror struct {
	mu   sync.Mutex
	rows []core.Expense
}

var _ sheets.Mirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{}
}

// AppendExpense stores the expense and returns a synthetic row reference.
func (m *Mirror) AppendExpense(_ context.Context, e core.Expense) (string, error) {
	if e.ID <= 0 {
		return "", fmt.Errorf("mirror row needs an id, got %d", e.ID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, e)
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

// DeleteExpense removes every row carrying id.
func (m *Mirror) DeleteExpense(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = slices.DeleteFunc(m.rows, func(e core.Expense) bool { return e.ID == id })
	return nil
}

// ListIDs returns the mirrored ids in row order.
func (m *Mirror) ListIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int64, 0, len(m.rows))
	for _, e := range m.rows {
		ids = append(ids, e.ID)
	}
	return ids, nil
}

// Rows returns a copy of the mirrored rows.
func (m *Mirror) Rows() []core.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.rows)
}
