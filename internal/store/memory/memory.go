package memory

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// SeedFile is read by NewFromFiles. One expense per line:
// date;item;amount;category. Blank lines and lines starting with # are ignored.
const SeedFile = "seed_expenses.txt"

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

var _ store.RecordStore = (*Store)(nil)

func New() *Store {
	return &Store{nextID: 1}
}

// NewFromFiles returns a store preloaded from base/seed_expenses.txt when present.
func NewFromFiles(base string) *Store {
	s := New()
	for i, line := range readLines(filepath.Join(base, SeedFile)) {
		e, err := parseSeedLine(line)
		if err != nil {
			slog.Warn("Skipping invalid seed line", "file", SeedFile, "line", i+1, "error", err)
			continue
		}
		_, _ = s.Create(context.Background(), e)
	}
	return s
}

// Create implements store.ExpenseCreator
func (s *Store) Create(_ context.Context, e core.NewExpense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.items = append(s.items, e.WithID(id))
	return id, nil
}

// ListAll implements store.ExpenseLister
func (s *Store) ListAll(ctx context.Context) ([]core.Expense, error) {
	return s.ListFiltered(ctx, "")
}

// ListFiltered implements store.ExpenseLister
func (s *Store) ListFiltered(_ context.Context, substring string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.Matches(substring) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Get implements store.ExpenseGetter
func (s *Store) Get(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.ID == id {
			return e, nil
		}
	}
	return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
}

// Delete implements store.ExpenseDeleter
func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func parseSeedLine(line string) (core.NewExpense, error) {
	parts := strings.Split(line, ";")
	if len(parts) != 4 {
		return core.NewExpense{}, fmt.Errorf("expected 4 fields, got %d", len(parts))
	}
	return core.ExpenseInput{
		Date:     parts[0],
		Item:     parts[1],
		Amount:   parts[2],
		Category: parts[3],
	}.Parse()
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
