package http

import (
	"errors"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

// chartPage is the data of the chart page. Exactly one of Points, Message and
// Error is set.
type chartPage struct {
	Title   string
	Filter  string
	Points  []seriesPoint
	Message string
	Error   string
}

// handleChart renders the amount-over-time chart for ?q=.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter := filterParam(r)
	page := chartPage{Title: "Expenses over time", Filter: filter}

	points, err := s.svc.Series(r.Context(), filter)
	switch {
	case err == nil:
		page.Points = newSeriesPoints(points)
		s.render(w, r, http.StatusOK, "chart.html", page)
	case errors.Is(err, core.ErrNoData):
		page.Message = "No expenses to chart."
		s.render(w, r, http.StatusOK, "chart.html", page)
	default:
		status, message, _ := userError(err)
		s.logSeriesError(r, filter, err, status)
		page.Error = message
		s.render(w, r, status, "chart.html", page)
	}
}

// handleAPISeries returns the chart points for ?q= as JSON.
func (s *Server) handleAPISeries(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}

	filter := filterParam(r)
	points, err := s.svc.Series(r.Context(), filter)
	if err != nil {
		status, message, field := userError(err)
		s.logSeriesError(r, filter, err, status)
		JSONError(status, message, field).Write(w)
		return
	}

	NewHTMXResponse().BodyJSON(map[string]any{
		"filter": filter,
		"points": newSeriesPoints(points),
	}).Write(w)
}

func (s *Server) logSeriesError(r *http.Request, filter string, err error, status int) {
	logger := applog.FromContext(r.Context())
	args := []any{applog.FieldOperation, applog.OpSeries, applog.FieldFilter, filter, applog.FieldError, err}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Failed to build series", args...)
		return
	}
	logger.InfoContext(r.Context(), "Series not available", args...)
}
