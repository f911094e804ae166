package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	"expensetracker/internal/store"
)

// RecordReader is the read side of the record store the worker needs.
type RecordReader interface {
	store.ExpenseGetter
	store.ExpenseLister
}

// SyncWorker keeps a spreadsheet mirror in step with the record store.
type SyncWorker struct {
	store     RecordReader
	mirror    sheets.Mirror
	batchSize int
	logger    *applog.Logger
}

// ReconcileResult counts the rows a reconciliation pass changed.
type ReconcileResult struct {
	Appended int
	Removed  int
	Pending  int
}

func NewSyncWorker(s RecordReader, mirror sheets.Mirror, batchSize int) *SyncWorker {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SyncWorker{
		store:     s,
		mirror:    mirror,
		batchSize: batchSize,
		logger:    applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentWorker}),
	}
}

// HandleEvent applies one change event to the mirror. It is safe to
// redeliver: a created record already mirrored is not appended twice and a
// deleted record already gone is a no-op.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.ExpenseEvent) error {
	switch msg.Type {
	case amqp.EventCreated:
		return w.handleCreated(ctx, msg.ID)
	case amqp.EventDeleted:
		if err := w.mirror.DeleteExpense(ctx, msg.ID); err != nil {
			return fmt.Errorf("remove mirrored expense %d: %w", msg.ID, err)
		}
		w.logger.InfoContext(ctx, "Removed mirrored expense", applog.FieldOperation, applog.OpDelete, applog.FieldExpenseID, msg.ID)
		return nil
	default:
		return fmt.Errorf("unknown event type %q", msg.Type)
	}
}

func (w *SyncWorker) handleCreated(ctx context.Context, id int64) error {
	mirrored, err := w.mirror.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("list mirrored ids: %w", err)
	}
	if slices.Contains(mirrored, id) {
		w.logger.DebugContext(ctx, "Expense already mirrored", applog.FieldExpenseID, id)
		return nil
	}

	e, err := w.store.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		// Deleted before we got to it; the deleted event follows.
		w.logger.InfoContext(ctx, "Skipping expense no longer in store", applog.FieldExpenseID, id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get expense %d: %w", id, err)
	}

	return w.appendOne(ctx, e)
}

func (w *SyncWorker) appendOne(ctx context.Context, e core.Expense) error {
	ref, err := w.mirror.AppendExpense(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %d: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Mirrored expense",
		applog.NewFields().
			WithOperation(applog.OpSync).
			WithExpense(e.ID, e.Date, e.Item, e.Amount.String(), e.Category).
			ToSlice()...)
	w.logger.DebugContext(ctx, "Mirror row", applog.FieldExpenseID, e.ID, applog.FieldMirrorRef, ref)
	return nil
}

// Reconcile appends up to batchSize store records missing from the mirror
// and removes mirrored ids the store no longer holds. It recovers from lost
// events and worker downtime.
func (w *SyncWorker) Reconcile(ctx context.Context) (ReconcileResult, error) {
	var res ReconcileResult

	records, err := w.store.ListAll(ctx)
	if err != nil {
		return res, fmt.Errorf("list store records: %w", err)
	}
	mirrored, err := w.mirror.ListIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list mirrored ids: %w", err)
	}

	inMirror := make(map[int64]struct{}, len(mirrored))
	for _, id := range mirrored {
		inMirror[id] = struct{}{}
	}
	inStore := make(map[int64]struct{}, len(records))
	for _, e := range records {
		inStore[e.ID] = struct{}{}
	}

	var errs []error

	for _, e := range records {
		if _, ok := inMirror[e.ID]; ok {
			continue
		}
		if res.Appended >= w.batchSize {
			res.Pending++
			continue
		}
		if err := w.appendOne(ctx, e); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Appended++
	}

	for _, id := range mirrored {
		if _, ok := inStore[id]; ok {
			continue
		}
		if err := w.mirror.DeleteExpense(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("remove mirrored expense %d: %w", id, err))
			continue
		}
		res.Removed++
	}

	w.logger.InfoContext(ctx, "Reconciliation finished",
		applog.FieldOperation, applog.OpReconcile,
		"appended", res.Appended,
		"removed", res.Removed,
		"pending", res.Pending,
		"errors", len(errs))

	return res, errors.Join(errs...)
}
