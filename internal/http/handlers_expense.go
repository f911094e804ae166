package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	applog "expensetracker/internal/log"
)

// handleCreateExpense stores one expense from a form or JSON body.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Unreadable expense body", applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		s.writeError(w, p, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	in := p.ExpenseInput()
	id, err := s.svc.CreateExpense(ctx, in)
	if err != nil {
		status, message, field := userError(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "Failed to create expense", applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		} else {
			logger.InfoContext(ctx, "Expense rejected",
				applog.FieldOperation, applog.OpCreate,
				"field", field,
				applog.FieldError, err)
		}
		s.writeError(w, p, status, message, field)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesCreated, 1)

	if p.IsJSON() {
		NewHTMXResponse().BodyJSON(map[string]int64{"id": id}).Write(w)
		return
	}
	NewHTMXResponse().
		TriggerExpenseCreated(id).
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Added %s", strings.TrimSpace(in.Item))).
		Write(w)
}

// handleDeleteExpense removes an expense by id. The id may come from the body
// or the query string. Unknown ids succeed.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.writeError(w, p, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	id, err := p.ExpenseID()
	if err != nil {
		status, message, field := userError(err)
		s.writeError(w, p, status, message, field)
		return
	}

	if err := s.svc.DeleteExpense(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Failed to delete expense",
			applog.FieldOperation, applog.OpDelete,
			applog.FieldExpenseID, id,
			applog.FieldError, err)
		status, message, field := userError(err)
		s.writeError(w, p, status, message, field)
		return
	}
	atomic.AddInt64(&s.appMetrics.expensesDeleted, 1)

	if p.IsJSON() {
		NewHTMXResponse().BodyJSON(map[string]any{"id": id, "deleted": true}).Write(w)
		return
	}
	NewHTMXResponse().
		TriggerExpenseDeleted(id).
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}

// handleExpensesTable renders the table partial and total for ?q=.
func (s *Server) handleExpensesTable(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter := filterParam(r)
	ledger, err := s.svc.Ledger(r.Context(), filter)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list expenses",
			applog.FieldOperation, applog.OpFilter,
			applog.FieldFilter, filter,
			applog.FieldError, err)
		InternalServerError("Failed to load expenses").Write(w)
		return
	}

	s.render(w, r, http.StatusOK, "expenses_table.html", newLedgerView(ledger, s.currency))
}

// handleAPIExpenses returns the ledger for ?q= as JSON.
func (s *Server) handleAPIExpenses(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter := filterParam(r)
	ledger, err := s.svc.Ledger(r.Context(), filter)
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list expenses",
			applog.FieldOperation, applog.OpList,
			applog.FieldFilter, filter,
			applog.FieldError, err)
		status, message, field := userError(err)
		JSONError(status, message, field).Write(w)
		return
	}

	NewHTMXResponse().BodyJSON(newLedgerView(ledger, s.currency)).Write(w)
}

// writeError answers JSON clients with a JSON body and htmx clients with an
// error fragment plus a notification.
func (s *Server) writeError(w http.ResponseWriter, p *RequestBodyParser, status int, message, field string) {
	if p != nil && p.IsJSON() {
		JSONError(status, message, field).Write(w)
		return
	}
	ErrorResponse(status, message).
		TriggerErrorNotification(message).
		Write(w)
}
