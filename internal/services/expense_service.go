package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/store"
)

// EventPublisher announces store changes. *amqp.Client implements it.
type EventPublisher interface {
	PublishCreated(ctx context.Context, id int64) error
	PublishDeleted(ctx context.Context, id int64) error
	Close() error
}

// ExpenseService is the single entry point front-ends use: it validates input,
// talks to the store and rebuilds the ledger view from the store on each read.
type ExpenseService struct {
	store     store.RecordStore
	publisher EventPublisher
	logger    *applog.Logger
}

// NewExpenseService wires a store and an optional publisher (nil disables events).
func NewExpenseService(s store.RecordStore, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     s,
		publisher: publisher,
		logger:    applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentExpense}),
	}
}

// CreateExpense validates the submitted strings and stores a new record.
// Errors from parsing are *core.ValidationError or *core.ParseError.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (int64, error) {
	e, err := in.Parse()
	if err != nil {
		return 0, err
	}

	id, err := s.store.Create(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created",
		applog.NewFields().
			WithOperation(applog.OpCreate).
			WithExpense(id, e.Date, e.Item, e.Amount.String(), e.Category).
			ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishCreated(ctx, id); err != nil {
			// The record is stored; the mirror catches up on reconciliation.
			s.logger.ErrorContext(ctx, "Failed to publish created event", "id", id, "error", err)
		}
	}

	return id, nil
}

// DeleteExpense removes a record. Absent ids are not an error.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted", applog.FieldOperation, applog.OpDelete, applog.FieldExpenseID, id)

	if s.publisher != nil {
		if err := s.publisher.PublishDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish deleted event", "id", id, "error", err)
		}
	}

	return nil
}

// Ledger returns the records matching filter with their total.
func (s *ExpenseService) Ledger(ctx context.Context, filter string) (core.Ledger, error) {
	records, err := s.records(ctx, filter)
	if err != nil {
		return core.Ledger{}, err
	}
	return core.NewLedger(filter, records), nil
}

// Series returns chart points for the records matching filter. It returns
// core.ErrNoData when nothing matches and a *core.ParseError on a bad date.
func (s *ExpenseService) Series(ctx context.Context, filter string) ([]core.SeriesPoint, error) {
	records, err := s.records(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNoData
	}
	points, err := core.Series(records)
	if err != nil {
		s.logger.WarnContext(ctx, "Cannot chart expenses", applog.FieldOperation, applog.OpSeries, applog.FieldError, err.Error())
		return nil, err
	}
	return points, nil
}

// Ready reports whether the store is reachable.
func (s *ExpenseService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *ExpenseService) records(ctx context.Context, filter string) ([]core.Expense, error) {
	var (
		records []core.Expense
		err     error
	)
	if filter == "" {
		records, err = s.store.ListAll(ctx)
	} else {
		records, err = s.store.ListFiltered(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return records, nil
}

// Close closes both the store and the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
