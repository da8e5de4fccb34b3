// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "homebudget"

var LedgerMutations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "mutations_total",
	Help:      "Ledger mutations by entity, action and outcome.",
}, []string{"entity", "action", "outcome"})

var LedgerTransactions = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "transactions",
	Help:      "Current number of transactions in the ledger.",
})

var LedgerBudgets = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "ledger",
	Name:      "budgets",
	Help:      "Current number of budgets in the ledger.",
})

var BudgetAlerts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "alerts",
	Name:      "published_total",
	Help:      "Budget alerts by tier and publish outcome.",
}, []string{"tier", "outcome"})

var AlertsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "alerts",
	Name:      "consumed_total",
	Help:      "Budget alerts handled by the worker, by outcome.",
}, []string{"outcome"})

var ReportExports = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "exports_total",
	Help:      "Report exports by format or backend and outcome.",
}, []string{"target", "outcome"})

var ReportCache = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "cache_lookups_total",
	Help:      "Report summary cache lookups by result.",
}, []string{"result"})

var TransactionsImported = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "import",
	Name:      "transactions_total",
	Help:      "Transactions added from imported statements.",
})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern, method and status.",
}, []string{"route", "method", "status"})

var HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency by route pattern.",
	Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
}, []string{"route", "method"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})

var SuspiciousRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "suspicious_requests_total",
	Help:      "Requests flagged by the detector, by reason.",
}, []string{"reason"})

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveHTTP records one finished request.
func ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
