package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	appweb "expensetracker/web"
)

// ExpenseAPI is what the handlers need from the expense service.
type ExpenseAPI interface {
	CreateExpense(ctx context.Context, in core.ExpenseInput) (int64, error)
	DeleteExpense(ctx context.Context, id int64) error
	Ledger(ctx context.Context, filter string) (core.Ledger, error)
	Series(ctx context.Context, filter string) ([]core.SeriesPoint, error)
	Ready(ctx context.Context) error
}

// Options tunes the server. Zero values pick the defaults.
type Options struct {
	CurrencySymbol    string
	RequestsPerMinute int
	TrustedProxies    []string
	Logger            *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	svc       ExpenseAPI
	currency  string
	logger    *applog.Logger

	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ipResolver *security.ClientIPResolver
	appMetrics *appMetrics

	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime          time.Time
	expensesCreated int64
	expensesDeleted int64
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc ExpenseAPI, opts Options) (*Server, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "$"
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	resolver := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := resolver.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy: %w", err)
		}
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	rlConfig := ratelimit.DefaultConfig()
	if opts.RequestsPerMinute > 0 {
		rlConfig.RequestsPerMinute = opts.RequestsPerMinute
	}

	s := &Server{
		templates:  t,
		svc:        svc,
		currency:   opts.CurrencySymbol,
		logger:     logger,
		limiter:    ratelimit.NewLimiter(rlConfig),
		tracer:     trace.NewMiddleware(resolver.ExtractClientIP, opts.Logger.WithComponent(applog.ComponentTrace)),
		ipResolver: resolver,
		appMetrics: &appMetrics{uptime: time.Now()},
	}

	mux := http.NewServeMux()

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		s.limiter.Stop()
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/expenses", s.handleCreateExpense)
	mux.HandleFunc("/expenses/delete", s.handleDeleteExpense)

	// UI partials and pages
	mux.HandleFunc("/ui/expenses", s.handleExpensesTable)
	mux.HandleFunc("/ui/chart", s.handleChart)

	// JSON API
	mux.HandleFunc("/api/expenses", s.handleAPIExpenses)
	mux.HandleFunc("/api/series", s.handleAPISeries)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(resolver.ExtractClientIP, s.handleRateLimited)(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.tracer.Middleware(headers.Middleware(limited)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// render executes a template into a buffer first so that a failing template
// never leaves a half-written page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template render failed",
			"template", name,
			applog.FieldOperation, applog.OpRender,
			applog.FieldError, err)
		InternalServerError("Failed to render page").Write(w)
		return
	}
	NewHTMXResponse().Status(status).BodyHTML(buf.String()).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.ipResolver.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)

	ErrorResponse(http.StatusTooManyRequests, "Too many requests. Please try again later.").
		Header("Retry-After", "60").
		TriggerErrorNotification("Too many requests. Please wait a minute.").
		Write(w)
}
