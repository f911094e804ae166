// Package storetest holds the behavior every store.RecordStore must show.
// Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// Factory returns an empty store. Cleanup is the caller's job (t.Cleanup).
type Factory func(t *testing.T) store.RecordStore

// Run executes the shared contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateThenList", func(t *testing.T) { testCreateThenList(t, newStore(t)) })
	t.Run("IDsAreUnique", func(t *testing.T) { testIDsAreUnique(t, newStore(t)) })
	t.Run("DeleteExcludesRecord", func(t *testing.T) { testDeleteExcludesRecord(t, newStore(t)) })
	t.Run("DeleteAbsentIsNoop", func(t *testing.T) { testDeleteAbsentIsNoop(t, newStore(t)) })
	t.Run("FilterEmptyEqualsAll", func(t *testing.T) { testFilterEmptyEqualsAll(t, newStore(t)) })
	t.Run("FilterIsCaseSensitive", func(t *testing.T) { testFilterIsCaseSensitive(t, newStore(t)) })
	t.Run("Example", func(t *testing.T) { testExample(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("NegativeAmount", func(t *testing.T) { testNegativeAmount(t, newStore(t)) })
	t.Run("TextKeptAsEntered", func(t *testing.T) { testTextKeptAsEntered(t, newStore(t)) })
	t.Run("LargestAmount", func(t *testing.T) { testLargestAmount(t, newStore(t)) })
}

func mustCreate(t *testing.T, s store.RecordStore, date, item, amount, category string) int64 {
	t.Helper()
	e, err := core.ExpenseInput{Date: date, Item: item, Amount: amount, Category: category}.Parse()
	if err != nil {
		t.Fatalf("parse input: %v", err)
	}
	id, err := s.Create(context.Background(), e)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return id
}

func mustList(t *testing.T, s store.RecordStore, filter string) []core.Expense {
	t.Helper()
	var (
		out []core.Expense
		err error
	)
	if filter == "" {
		out, err = s.ListAll(context.Background())
	} else {
		out, err = s.ListFiltered(context.Background(), filter)
	}
	if err != nil {
		t.Fatalf("list %q: %v", filter, err)
	}
	return out
}

func ids(records []core.Expense) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func testCreateThenList(t *testing.T, s store.RecordStore) {
	before := mustList(t, s, "")
	id := mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	after := mustList(t, s, "")

	if len(after) != len(before)+1 {
		t.Fatalf("expected %d records, got %d", len(before)+1, len(after))
	}
	var found []core.Expense
	for _, r := range after {
		if r.ID == id {
			found = append(found, r)
		}
	}
	if len(found) != 1 {
		t.Fatalf("expected exactly one record with id %d, got %d", id, len(found))
	}
	got := found[0]
	if got.Date != "2024-01-05" || got.Item != "Coffee" || got.Category != "Food" || !got.Amount.Equal(decimal.RequireFromString("3.5")) {
		t.Fatalf("stored record differs from input: %+v", got)
	}
}

func testIDsAreUnique(t *testing.T, s store.RecordStore) {
	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		id := mustCreate(t, s, "2024-01-01", "x", "1", "c")
		if seen[id] {
			t.Fatalf("id %d assigned twice", id)
		}
		seen[id] = true
	}
	got := ids(mustList(t, s, ""))
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Fatalf("records not in insertion order: %v", got)
		}
	}
}

func testDeleteExcludesRecord(t *testing.T, s store.RecordStore) {
	a := mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	b := mustCreate(t, s, "2024-02-10", "Bus", "2.00", "Transport")

	if err := s.Delete(context.Background(), a); err != nil {
		t.Fatalf("delete: %v", err)
	}
	remaining := mustList(t, s, "")
	for _, r := range remaining {
		if r.ID == a {
			t.Fatalf("deleted id %d still listed", a)
		}
	}
	if len(remaining) != 1 || remaining[0].ID != b {
		t.Fatalf("unexpected remaining records: %v", ids(remaining))
	}
	if !core.Total(remaining).Equal(decimal.RequireFromString("2")) {
		t.Fatalf("total after delete = %s, want 2", core.Total(remaining))
	}
}

func testDeleteAbsentIsNoop(t *testing.T, s store.RecordStore) {
	mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	if err := s.Delete(context.Background(), 9999); err != nil {
		t.Fatalf("delete of absent id should not fail: %v", err)
	}
	if n := len(mustList(t, s, "")); n != 1 {
		t.Fatalf("expected 1 record after no-op delete, got %d", n)
	}
}

func testFilterEmptyEqualsAll(t *testing.T, s store.RecordStore) {
	mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	mustCreate(t, s, "2024-02-10", "Bus", "2.00", "Transport")

	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	filtered, err := s.ListFiltered(context.Background(), "")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	a, f := ids(all), ids(filtered)
	if len(a) != len(f) {
		t.Fatalf("ListFiltered(\"\") = %v, ListAll() = %v", f, a)
	}
	for i := range a {
		if a[i] != f[i] {
			t.Fatalf("ListFiltered(\"\") = %v, ListAll() = %v", f, a)
		}
	}
}

func testFilterIsCaseSensitive(t *testing.T, s store.RecordStore) {
	mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	mustCreate(t, s, "2024-02-10", "Bus", "2.00", "Transport")

	if got := mustList(t, s, "food"); len(got) != 0 {
		t.Fatalf("lowercase filter must not match 'Food': %v", ids(got))
	}
	if got := mustList(t, s, "2024-02"); len(got) != 1 || got[0].Item != "Bus" {
		t.Fatalf("date filter returned %v", got)
	}
	if got := mustList(t, s, "Coffee"); len(got) != 0 {
		t.Fatalf("item text must not be searched: %v", got)
	}
	if got := mustList(t, s, "%"); len(got) != 0 {
		t.Fatalf("wildcard characters must match literally: %v", got)
	}
}

func testExample(t *testing.T, s store.RecordStore) {
	coffee := mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	mustCreate(t, s, "2024-02-10", "Bus", "2.00", "Transport")

	if got := core.Total(mustList(t, s, "")); !got.Equal(decimal.RequireFromString("5.50")) {
		t.Fatalf("total = %s, want 5.50", got)
	}
	food := mustList(t, s, "Food")
	if len(food) != 1 || food[0].ID != coffee {
		t.Fatalf("filter Food returned %v", ids(food))
	}
	if err := s.Delete(context.Background(), coffee); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := core.Total(mustList(t, s, "")); !got.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("total after delete = %s, want 2.00", got)
	}
}

func testGetMissing(t *testing.T, s store.RecordStore) {
	id := mustCreate(t, s, "2024-01-05", "Coffee", "3.50", "Food")
	got, err := s.Get(context.Background(), id)
	if err != nil || got.Item != "Coffee" {
		t.Fatalf("get existing: %+v, %v", got, err)
	}
	if _, err := s.Get(context.Background(), id+100); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testNegativeAmount(t *testing.T, s store.RecordStore) {
	mustCreate(t, s, "2024-03-01", "Refund", "-4.25", "Food")
	got := mustList(t, s, "")
	if len(got) != 1 || !got[0].Amount.Equal(decimal.RequireFromString("-4.25")) {
		t.Fatalf("negative amount not preserved: %+v", got)
	}
}

func testTextKeptAsEntered(t *testing.T, s store.RecordStore) {
	id := mustCreate(t, s, "2024-01-05", " Coffee ", "3.50", "Food ")
	got, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Item != " Coffee " || got.Category != "Food " {
		t.Fatalf("stored text differs from input: %q / %q", got.Item, got.Category)
	}
}

func testLargestAmount(t *testing.T, s store.RecordStore) {
	mustCreate(t, s, "2024-03-01", "House", "999999999999999", "Home")
	mustCreate(t, s, "2024-03-02", "Dust", "0.0000000001", "Home")
	got := mustList(t, s, "")
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if !got[0].Amount.Equal(decimal.RequireFromString("999999999999999")) {
		t.Fatalf("large amount = %s", got[0].Amount)
	}
	if !got[1].Amount.Equal(decimal.RequireFromString("0.0000000001")) {
		t.Fatalf("small amount = %s", got[1].Amount)
	}

	_, err := core.ExpenseInput{Date: "2024-03-03", Item: "x", Amount: "1e400", Category: "c"}.Parse()
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("1e400 must be rejected before reaching the store, got %v", err)
	}
	if n := len(mustList(t, s, "")); n != 2 {
		t.Fatalf("store changed after rejected input: %d records", n)
	}
}
