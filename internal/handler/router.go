package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router dispatches to.
type Services struct {
	Auth      *service.AuthService
	Profile   *service.ProfileService
	Ledger    *service.LedgerService
	Records   *service.RecordsService
	Reports   *service.ReportService
	Invoices  *service.InvoiceService
	Documents *service.DocumentService

	// Store is checked by /healthz. Nil skips the check.
	Store Pinger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Auth (public)
		// =============================================
		r.Post("/auth/register", authRegisterHandler(svc.Auth, logger))
		r.Post("/auth/login", authLoginHandler(svc.Auth, logger))
		r.Post("/auth/refresh", authRefreshHandler(svc.Auth, logger))

		// Everything below requires a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			r.Post("/auth/logout", authLogoutHandler(svc.Auth, logger))
			r.Post("/auth/change-password", authChangePasswordHandler(svc.Auth, logger))

			r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))

			// =============================================
			// Profile
			// =============================================
			r.Get("/profile", getProfileHandler(svc.Profile, logger))
			r.Put("/profile", updateProfileHandler(svc.Profile, logger))

			// =============================================
			// Budgets & expenses
			// =============================================
			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", listBudgetsHandler(svc.Ledger, logger))
				r.Post("/", createBudgetHandler(svc.Ledger, logger))
				r.Get("/{id}", getBudgetHandler(svc.Ledger, logger))
				r.Put("/{id}", updateBudgetHandler(svc.Ledger, logger))
				r.Delete("/{id}", deleteBudgetHandler(svc.Ledger, logger))
				r.Post("/{id}/recompute", recomputeBudgetHandler(svc.Ledger, logger))
			})
			r.Route("/expenses", func(r chi.Router) {
				r.Get("/", listExpensesHandler(svc.Ledger, logger))
				r.Post("/", createExpenseHandler(svc.Ledger, logger))
				r.Get("/{id}", getExpenseHandler(svc.Ledger, logger))
				r.Put("/{id}", updateExpenseHandler(svc.Ledger, logger))
				r.Delete("/{id}", deleteExpenseHandler(svc.Ledger, logger))
			})

			// =============================================
			// Earnings & investments
			// =============================================
			r.Route("/earnings", func(r chi.Router) {
				r.Get("/", listEarningsHandler(svc.Records, logger))
				r.Post("/", createEarningHandler(svc.Records, logger))
				r.Get("/{id}", getEarningHandler(svc.Records, logger))
				r.Put("/{id}", updateEarningHandler(svc.Records, logger))
				r.Delete("/{id}", deleteEarningHandler(svc.Records, logger))
			})
			r.Route("/investments", func(r chi.Router) {
				r.Get("/", listInvestmentsHandler(svc.Records, logger))
				r.Post("/", createInvestmentHandler(svc.Records, logger))
				r.Get("/{id}", getInvestmentHandler(svc.Records, logger))
				r.Put("/{id}", updateInvestmentHandler(svc.Records, logger))
				r.Delete("/{id}", deleteInvestmentHandler(svc.Records, logger))
			})

			// =============================================
			// Transactions & reports
			// =============================================
			r.Get("/transactions", listTransactionsHandler(svc.Reports, logger))
			r.Post("/transactions", createTransactionHandler())
			r.Get("/reports/weekly", weeklyReportHandler(svc.Reports, logger))

			// =============================================
			// Documents
			// =============================================
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", listDocumentsHandler(svc.Documents, logger))
				r.Post("/", uploadDocumentHandler(svc.Documents, logger))
				r.Get("/{id}", getDocumentHandler(svc.Documents, logger))
				r.Get("/{id}/download", downloadDocumentHandler(svc.Documents, logger))
				r.Delete("/{id}", deleteDocumentHandler(svc.Documents, logger))
			})

			// =============================================
			// Invoices
			// =============================================
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", listInvoicesHandler(svc.Invoices, logger))
				r.Post("/", createInvoiceHandler(svc.Invoices, logger))
				r.Get("/client_names", clientNamesHandler(svc.Invoices, logger))
				r.Get("/client_details", clientDetailsHandler(svc.Invoices, logger))
				r.Get("/{id}", getInvoiceHandler(svc.Invoices, logger))
				r.Put("/{id}", updateInvoiceHandler(svc.Invoices, logger))
				r.Delete("/{id}", deleteInvoiceHandler(svc.Invoices, logger))
				r.Get("/{id}/pdf", invoicePDFHandler(svc.Invoices, logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(store Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "finbackend-api", Status: "healthy", LastChecked: now},
		}

		if store != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			start := time.Now()
			err := store.Ping(pingCtx)
			cancel()
			status := "healthy"
			if err != nil {
				logger.Warn("healthz: store ping failed", zap.Error(err))
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "store", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		code := http.StatusOK
		if overallStatus == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.LedgerSnapshot())
	}
}
