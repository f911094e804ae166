package storage

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
	"expensetracker/internal/store/storetest"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "expenses.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustNew(t *testing.T, date, item, amount, category string) core.NewExpense {
	t.Helper()
	e, err := core.ExpenseInput{Date: date, Item: item, Amount: amount, Category: category}.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return e
}

func TestSQLiteRepositoryContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.RecordStore { return newTestRepo(t) })
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if _, err := repo.Create(ctx, mustNew(t, "2024-01-05", "Coffee", "3.50", "Food")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	all, err := repo.ListAll(ctx)
	if err != nil || len(all) != 1 || all[0].Item != "Coffee" {
		t.Fatalf("expected persisted record, got %+v (err=%v)", all, err)
	}
}

func TestSQLiteRepositoryReadsLegacyFile(t *testing.T) {
	// A file written before migrations existed already has the table and rows.
	path := filepath.Join(t.TempDir(), "expenses.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open raw: %v", err)
	}
	stmts := []string{
		`CREATE TABLE expenses (id INTEGER PRIMARY KEY, date TEXT, item TEXT, amount REAL, category TEXT)`,
		`INSERT INTO expenses (date, item, amount, category) VALUES ('2023-12-31', 'Cake', 7.5, 'Food')`,
		`INSERT INTO expenses (date, item, amount, category) VALUES (NULL, 'Ghost', NULL, NULL)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	db.Close()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open legacy file: %v", err)
	}
	defer repo.Close()

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Item != "Cake" || all[1].Date != "" || !all[1].Amount.IsZero() {
		t.Fatalf("unexpected legacy rows: %+v", all)
	}
	food, err := repo.ListFiltered(context.Background(), "Food")
	if err != nil || len(food) != 1 {
		t.Fatalf("filter over legacy rows: %+v (err=%v)", food, err)
	}
}

func TestSQLiteRepositoryNonFiniteAmountIsAnError(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	if _, err := repo.db.ExecContext(ctx,
		`INSERT INTO expenses (date, item, amount, category) VALUES (?, ?, ?, ?)`,
		"2024-01-01", "Overflow", math.Inf(1), "c"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if _, err := repo.ListAll(ctx); err == nil {
		t.Fatal("expected an error for an infinite stored amount")
	}
	if _, err := repo.Get(ctx, 1); err == nil {
		t.Fatal("expected an error for an infinite stored amount")
	}
}

func TestSQLiteRepositoryPing(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.db")
	for i := 0; i < 2; i++ {
		version, err := Migrate(path)
		if err != nil {
			t.Fatalf("migrate pass %d: %v", i+1, err)
		}
		if version != 1 {
			t.Fatalf("migrate pass %d: version %d, want 1", i+1, version)
		}
	}
}
