package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

const selectColumns = `SELECT id, COALESCE(date, ''), COALESCE(item, ''), COALESCE(amount, 0), COALESCE(category, '') FROM expenses`

type SQLiteRepository struct {
	db *sql.DB
}

var _ store.RecordStore = (*SQLiteRepository)(nil)

// NewSQLiteRepository opens (or creates) the database file and migrates it.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One connection keeps writes to the file serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("SQLite schema ready", "path", dbPath, "schema_version", version)

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database file is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Create implements store.ExpenseCreator
func (r *SQLiteRepository) Create(ctx context.Context, e core.NewExpense) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, item, amount, category) VALUES (?, ?, ?, ?)`,
		e.Date, e.Item, e.Amount.InexactFloat64(), e.Category)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", id,
		"date", e.Date,
		"item", e.Item,
		"amount", e.Amount.String(),
		"category", e.Category)

	return id, nil
}

// ListAll implements store.ExpenseLister
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return scanExpenses(rows)
}

// ListFiltered implements store.ExpenseLister. instr() is used instead of
// LIKE because LIKE ignores ASCII case in SQLite.
func (r *SQLiteRepository) ListFiltered(ctx context.Context, substring string) ([]core.Expense, error) {
	if substring == "" {
		return r.ListAll(ctx)
	}
	rows, err := r.db.QueryContext(ctx,
		selectColumns+` WHERE instr(date, ?) > 0 OR instr(category, ?) > 0 ORDER BY id`,
		substring, substring)
	if err != nil {
		return nil, fmt.Errorf("list expenses matching %q: %w", substring, err)
	}
	return scanExpenses(rows)
}

// Get implements store.ExpenseGetter
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, nil
}

// Delete implements store.ExpenseDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		slog.DebugContext(ctx, "Delete of absent expense ignored", "id", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e      core.Expense
		amount float64
	)
	if err := s.Scan(&e.ID, &e.Date, &e.Item, &amount, &e.Category); err != nil {
		return core.Expense{}, err
	}
	if math.IsInf(amount, 0) || math.IsNaN(amount) {
		return core.Expense{}, fmt.Errorf("expense %d: amount %v is not a finite number", e.ID, amount)
	}
	e.Amount = decimal.NewFromFloat(amount)
	return e, nil
}

func scanExpenses(rows *sql.Rows) ([]core.Expense, error) {
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}
