package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"expensetracker/internal/core"
)

// fakeSheets serves the handful of Sheets REST calls the client makes.
type fakeSheets struct {
	mu       sync.Mutex
	column   [][]any
	appended [][]any
	batch    []gsheet.BatchUpdateSpreadsheetRequest
	header   [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Expenses!A2:E2"},
		})
	case strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.batch = append(f.batch, req)
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/") && r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.header = vr.Values
		_, _ = io.WriteString(w, `{}`)
	case strings.Contains(path, "/values/"):
		values := f.column
		if strings.Contains(path, "A1:E1") {
			values = f.header
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"values": values})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sheets": []any{
				map[string]any{"properties": map[string]any{"sheetId": 0, "title": "Other"}},
				map[string]any{"properties": map[string]any{"sheetId": 77, "title": "Expenses"}},
			},
		})
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithoutAuthentication(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, "sheet-id", "Expenses")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x", CredentialsFile: "/nonexistent/sa.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_AppendExpense(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	ref, err := c.AppendExpense(context.Background(), core.Expense{
		ID: 9, Date: "2024-01-01", Item: "Coffee", Amount: decimal.RequireFromString("3.5"), Category: "Food",
	})
	if err != nil {
		t.Fatalf("AppendExpense: %v", err)
	}
	if ref != "Expenses!A2:E2" {
		t.Fatalf("ref = %q", ref)
	}
	if len(fake.appended) != 1 {
		t.Fatalf("appended %d rows", len(fake.appended))
	}
	row := fake.appended[0]
	if row[0] != float64(9) || row[1] != "2024-01-01" || row[2] != "Coffee" || row[3] != 3.5 || row[4] != "Food" {
		t.Fatalf("unexpected row %v", row)
	}

	if _, err := c.AppendExpense(context.Background(), core.Expense{Item: "x"}); err == nil {
		t.Fatal("expected error for zero id")
	}
}

func TestClient_ListIDs(t *testing.T) {
	fake := &fakeSheets{column: [][]any{{"ID"}, {float64(1)}, {}, {"2"}, {float64(4)}}}
	c := newTestClient(t, fake)

	ids, err := c.ListIDs(context.Background())
	if err != nil {
		t.Fatalf("ListIDs: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[1] != 2 || ids[2] != 4 {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestClient_DeleteExpense(t *testing.T) {
	fake := &fakeSheets{column: [][]any{{"ID"}, {float64(1)}, {float64(4)}}}
	c := newTestClient(t, fake)

	if err := c.DeleteExpense(context.Background(), 4); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if len(fake.batch) != 1 {
		t.Fatalf("expected one batch update, got %d", len(fake.batch))
	}
	rng := fake.batch[0].Requests[0].DeleteDimension.Range
	if rng.SheetId != 77 || rng.Dimension != "ROWS" || rng.StartIndex != 2 || rng.EndIndex != 3 {
		t.Fatalf("unexpected range %+v", rng)
	}

	if err := c.DeleteExpense(context.Background(), 99); err != nil {
		t.Fatalf("absent row must be a no-op: %v", err)
	}
	if len(fake.batch) != 1 {
		t.Fatal("absent row must not issue a batch update")
	}
}

func TestClient_EnsureHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(fake.header) != 1 || fake.header[0][0] != "ID" {
		t.Fatalf("header not written: %v", fake.header)
	}

	fake.header = [][]any{{"Custom"}}
	if err := c.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if fake.header[0][0] != "Custom" {
		t.Fatal("existing header must be kept")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{float64(12), 12, true},
		{float64(1e6), 1000000, true},
		{" 7 ", 7, true},
		{"ID", 0, false},
		{float64(1.5), 0, false},
		{float64(0), 0, false},
		{"-3", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := parseID(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseID(%v) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRowIndexOf(t *testing.T) {
	col := [][]any{{"ID"}, {}, {float64(5)}, {"6"}}
	if got := rowIndexOf(col, 6); got != 3 {
		t.Fatalf("rowIndexOf(6) = %d", got)
	}
	if got := rowIndexOf(col, 8); got != -1 {
		t.Fatalf("rowIndexOf(8) = %d", got)
	}
}
