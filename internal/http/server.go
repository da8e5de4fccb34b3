package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"homebudget/internal/cache"
	"homebudget/internal/core"
	"homebudget/internal/importer/ofx"
	"homebudget/internal/log"
	"homebudget/internal/metrics"
	"homebudget/internal/middleware/ratelimit"
	"homebudget/internal/middleware/security"
	"homebudget/internal/middleware/trace"
	"homebudget/internal/services"
	"homebudget/internal/sheets"
)

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	Addr               string
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	// ExportTarget labels exporter metrics, e.g. "memory" or "sheets".
	ExportTarget string
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	exporter sheets.ReportExporter
	importer *ofx.Parser
	logger   *log.Logger
	target   string

	// Report summaries keyed by period, ledger version and day.
	reports *cache.LRUCache[core.ReportSummary]

	limiter  *ratelimit.Limiter
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
// A nil exporter disables POST /api/reports/export.
func NewServer(opts Options, svc *services.LedgerService, exporter sheets.ReportExporter, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.ExportTarget == "" {
		opts.ExportTarget = "exporter"
	}

	s := &Server{
		svc:      svc,
		exporter: exporter,
		importer: ofx.NewParser(logger),
		logger:   logger.WithComponent(log.ComponentHTTP),
		target:   opts.ExportTarget,
		reports:  cache.NewLRUCache[core.ReportSummary](opts.CacheSize, opts.CacheTTL),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector: security.NewDetector(logger.WithComponent(log.ComponentSecurity).Logger),
	}
	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(log.Middleware(s.logger))
	r.Use(trace.NewMiddleware(s.detector.ExtractClientIP).Middleware)
	r.Use(chimw.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, please try again later").Write(w)
		}))

		r.Get("/categories", s.handleCategories)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", s.handleListTransactions)
			r.Post("/", s.handleCreateTransaction)
			r.Post("/import", s.handleImportTransactions)
			r.Delete("/{id}", s.handleDeleteTransaction)
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", s.handleListBudgets)
			r.Post("/", s.handleCreateBudget)
			r.Get("/totals", s.handleBudgetTotals)
			r.Post("/scan", s.handleScanBudgets)
			r.Delete("/{id}", s.handleDeleteBudget)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/summary", s.handleReportSummary)
			r.Get("/export", s.handleReportDownload)
			r.Post("/export", s.handleReportExport)
		})

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})

	return r
}

// ReportCache exposes the summary cache so a cache.Manager can sweep it.
func (s *Server) ReportCache() cache.Cleaner {
	return s.reports
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.svc == nil {
		http.Error(w, "ledger not ready", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (version %d)", s.svc.Ledger().Version())
}
