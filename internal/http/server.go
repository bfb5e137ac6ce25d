package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/query"
	"fintrack/internal/services"
)

// Tracker is what the handlers need from the service layer.
// *services.Tracker implements it.
type Tracker interface {
	Summary() services.Summary
	List(c query.Criteria) ([]core.Transaction, error)
	Transaction(id int64) (core.Transaction, error)
	AddTransaction(ctx context.Context, in core.TransactionInput) (services.Outcome, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (services.Outcome, error)
	DeleteTransaction(ctx context.Context, id int64) (services.Outcome, error)
	Budgets() map[string]decimal.Decimal
	SetBudgets(ctx context.Context, entries map[string]string) services.Outcome
	BudgetStatus() []core.Utilization
	ChartSeries() core.ChartSeries
	MonthSummary(month string) (core.MonthOverview, error)
	Currency() string
	SetCurrency(ctx context.Context, code string) (services.Outcome, error)
	Format(amount decimal.Decimal) string
	Categories() []string
	AllowedCategories() []string
	ExportCSV(w io.Writer) error
	ImportCSV(ctx context.Context, r io.Reader) services.ImportResult
	Warnings() []string
}

// Options tunes the server. The zero value is usable.
type Options struct {
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	tracker  Tracker
	logger   *log.Logger
	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer wires the API routes onto addr. The returned server is not yet
// listening.
func NewServer(addr string, tracker Tracker, logger *log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		tracker:  tracker,
		logger:   logger,
		limiter:  ratelimit.NewLimiter(opts.RateLimit),
		detector: security.NewDetector(),
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("GET /api/budgets", s.handleGetBudgets)
	api.HandleFunc("PUT /api/budgets", s.handleSetBudgets)
	api.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)
	api.HandleFunc("GET /api/charts", s.handleCharts)
	api.HandleFunc("GET /api/months/{month}", s.handleMonth)
	api.HandleFunc("GET /api/currency", s.handleGetCurrency)
	api.HandleFunc("PUT /api/currency", s.handleSetCurrency)
	api.HandleFunc("GET /api/currencies", s.handleCurrencies)
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/export.csv", s.handleExport)
	api.HandleFunc("POST /api/import", s.handleImport)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/", s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(api))

	var handler http.Handler = mux
	handler = s.withDetection(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.AccessLogMiddleware()(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests and waits for in-flight ones. Safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withDetection logs requests that look like probing. They are still
// served; the API exposes nothing those probes look for.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request detected",
				log.NewFields().
					WithComponent(log.ComponentHTTP).
					WithClientIP(s.detector.ExtractClientIP(r)).
					WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.Header.Get("User-Agent")).
					ToSlice()...)
		}
		next.ServeHTTP(w, r)
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Set("status", "ok").Write(w)
}

// handleReady reports the load warnings so an operator can see that
// persisted data was repaired.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	warnings := s.tracker.Warnings()
	b := NewJSONResponse().Set("status", "ready")
	if len(warnings) > 0 {
		b.Set("load_warnings", warnings)
	}
	b.Write(w)
}

func isCSV(contentType string) bool {
	ct := strings.ToLower(contentType)
	return ct == "" || strings.HasPrefix(ct, "text/csv") || strings.HasPrefix(ct, "text/plain") || strings.HasPrefix(ct, "application/octet-stream")
}
