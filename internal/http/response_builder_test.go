package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func decodeTriggers(t *testing.T, w *httptest.ResponseRecorder) map[string]json.RawMessage {
	t.Helper()
	raw := w.Header().Get("HX-Trigger")
	if raw == "" {
		t.Fatal("HX-Trigger header not set")
	}
	var events map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v (%s)", err, raw)
	}
	return events
}

func TestHTMXResponseBuilder_Defaults(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.Len() != 0 || w.Header().Get("HX-Trigger") != "" {
		t.Errorf("empty builder wrote body %q / trigger %q", w.Body.String(), w.Header().Get("HX-Trigger"))
	}
}

func TestHTMXResponseBuilder_CreatedTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerExpenseCreated(7).
		TriggerFormReset().
		TriggerSuccessNotification("Added Coffee").
		Write(w)

	events := decodeTriggers(t, w)
	if got := string(events["expense:created"]); got != `{"id":7}` {
		t.Errorf("expense:created = %s", got)
	}
	if _, ok := events["form:reset"]; !ok {
		t.Error("form:reset missing")
	}

	var n notification
	if err := json.Unmarshal(events["show-notification"], &n); err != nil {
		t.Fatalf("decode notification: %v", err)
	}
	if n.Type != NotificationSuccess || n.Message != "Added Coffee" || n.Duration != 3000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestHTMXResponseBuilder_DeletedTrigger(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().TriggerExpenseDeleted(3).Write(w)

	if got := string(decodeTriggers(t, w)["expense:deleted"]); got != `{"id":3}` {
		t.Errorf("expense:deleted = %s", got)
	}
}

func TestHTMXResponseBuilder_LaterTriggerWins(t *testing.T) {
	w := httptest.NewRecorder()
	NewHTMXResponse().
		TriggerSuccessNotification("first").
		TriggerErrorNotification("second").
		Write(w)

	var n notification
	_ = json.Unmarshal(decodeTriggers(t, w)["show-notification"], &n)
	if n.Type != NotificationError || n.Message != "second" || n.Duration != 5000 {
		t.Errorf("notification = %+v", n)
	}
}

func TestHTMXResponseBuilder_HeaderAndStatus(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("Retry-After", "60").
		Status(http.StatusTooManyRequests).
		Write(w)

	if w.Header().Get("Retry-After") != "60" {
		t.Errorf("custom header not set")
	}
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestHTMXResponseBuilder_BodyJSON(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().BodyJSON(map[string]int64{"id": 4}).Write(w)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"id":4}` {
		t.Errorf("Body = %q", got)
	}
}

func TestHTMXResponseBuilder_BodyJSONFailure(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().BodyJSON(map[string]any{"bad": make(chan int)}).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "unprocessable",
			builder:    ErrorResponse(http.StatusUnprocessableEntity, "Please fill in the item field"),
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `<div class="error">Please fill in the item field</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Failed to load expenses"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Failed to load expenses</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Page not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error">Page not found</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(http.StatusBadRequest, "<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Error("Error response did not escape HTML")
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Error("Error response did not properly escape HTML entities")
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("DELETE, POST").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if w.Header().Get("Allow") != "DELETE, POST" {
		t.Errorf("Allow header = %q, want %q", w.Header().Get("Allow"), "DELETE, POST")
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()

	JSONError(http.StatusUnprocessableEntity, "Please fill in the item field", "item").Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status code = %d", w.Code)
	}
	want := `{"error":"Please fill in the item field","field":"item"}`
	if got := strings.TrimSpace(w.Body.String()); got != want {
		t.Errorf("Body = %q, want %q", got, want)
	}
}
