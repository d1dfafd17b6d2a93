package observability

import (
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the backend.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	expenses           *prometheus.CounterVec
	recomputes         prometheus.Counter
	invoicesNumbered   prometheus.Counter
	numberingConflicts *prometheus.CounterVec
	blobErrors         *prometheus.CounterVec
	eventsPublished    *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "finbackend_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		expenses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_expense_writes_total",
				Help: "Expense writes by outcome (accepted, rejected).",
			},
			[]string{"outcome"},
		),
		recomputes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finbackend_budget_recomputes_total",
				Help: "Budget spent recomputations.",
			},
		),
		invoicesNumbered: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "finbackend_invoices_numbered_total",
				Help: "Invoice numbers issued.",
			},
		),
		numberingConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_invoice_number_conflicts_total",
				Help: "Duplicate invoice numbers hit on write, by resolution (retried, surfaced).",
			},
			[]string{"resolution"},
		),
		blobErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_blob_errors_total",
				Help: "Blob store failures by operation.",
			},
			[]string{"operation"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_events_published_total",
				Help: "Domain events by type and outcome.",
			},
			[]string{"type", "outcome"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finbackend_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of a request.
func (m *Metrics) RecordRequestDuration(route string, d time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// IncrExpenseAccepted counts an expense write that passed the budget check.
func (m *Metrics) IncrExpenseAccepted() {
	m.expenses.WithLabelValues("accepted").Inc()
}

// IncrExpenseRejected counts an expense write refused as over budget.
func (m *Metrics) IncrExpenseRejected() {
	m.expenses.WithLabelValues("rejected").Inc()
}

// IncrRecompute counts a budget recomputation.
func (m *Metrics) IncrRecompute() {
	m.recomputes.Inc()
}

// IncrInvoiceNumbered counts an issued invoice number.
func (m *Metrics) IncrInvoiceNumbered() {
	m.invoicesNumbered.Inc()
}

// IncrNumberingConflict counts a duplicate invoice number.
func (m *Metrics) IncrNumberingConflict(retried bool) {
	if retried {
		m.numberingConflicts.WithLabelValues("retried").Inc()
		return
	}
	m.numberingConflicts.WithLabelValues("surfaced").Inc()
}

// IncrBlobError counts a blob store failure.
func (m *Metrics) IncrBlobError(operation string) {
	m.blobErrors.WithLabelValues(operation).Inc()
}

// IncrEvent counts a publish attempt.
func (m *Metrics) IncrEvent(eventType string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.eventsPublished.WithLabelValues(eventType, outcome).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// LedgerSnapshot returns the ledger counters for GET /v1/metrics/ledger.
func (m *Metrics) LedgerSnapshot() *domain.LedgerMetrics {
	blobErrors := int64(0)
	for _, op := range []string{"put", "get", "delete"} {
		blobErrors += int64(getCounterValue(m.blobErrors.WithLabelValues(op)))
	}

	return &domain.LedgerMetrics{
		ExpensesAccepted: int64(getCounterValue(m.expenses.WithLabelValues("accepted"))),
		ExpensesRejected: int64(getCounterValue(m.expenses.WithLabelValues("rejected"))),
		BudgetRecomputes: int64(getCounterValue(m.recomputes)),
		InvoicesNumbered: int64(getCounterValue(m.invoicesNumbered)),
		NumberingConflicts: int64(getCounterValue(m.numberingConflicts.WithLabelValues("retried")) +
			getCounterValue(m.numberingConflicts.WithLabelValues("surfaced"))),
		BlobErrors: blobErrors,
	}
}

// getCounterValue extracts the current value of a counter.
func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
