package domain

// ============================================================
// Health API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// LedgerMetrics is returned by GET /v1/metrics/ledger.
type LedgerMetrics struct {
	ExpensesAccepted   int64 `json:"expensesAccepted"`
	ExpensesRejected   int64 `json:"expensesRejected"`
	BudgetRecomputes   int64 `json:"budgetRecomputes"`
	InvoicesNumbered   int64 `json:"invoicesNumbered"`
	NumberingConflicts int64 `json:"numberingConflicts"`
	BlobErrors         int64 `json:"blobErrors"`
}

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}
