package handler

import (
	"net/http"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// Earnings: /v1/earnings
// ============================================================

type earningRequest struct {
	Project string          `json:"project" validate:"required,max=255"`
	Amount  decimal.Decimal `json:"amount"`
	Date    domain.Date     `json:"date"`
}

func listEarningsHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/earnings")
		defer span.End()

		rng, err := dateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		earnings, err := svc.ListEarnings(ctx, OwnerIDFromContext(ctx), domain.EarningFilter{
			Project: r.URL.Query().Get("project"),
			Range:   rng,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Earning]{Data: earnings, Total: len(earnings)})
	}
}

func createEarningHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/earnings")
		defer span.End()

		var req earningRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		e, err := svc.CreateEarning(ctx, &domain.Earning{
			OwnerID: OwnerIDFromContext(ctx),
			Project: req.Project,
			Amount:  req.Amount,
			Date:    req.Date,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, e)
	}
}

func getEarningHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/earnings/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		e, err := svc.GetEarning(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, e)
	}
}

func updateEarningHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/earnings/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req earningRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		e, err := svc.UpdateEarning(ctx, &domain.Earning{
			ID:      id,
			OwnerID: OwnerIDFromContext(ctx),
			Project: req.Project,
			Amount:  req.Amount,
			Date:    req.Date,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, e)
	}
}

func deleteEarningHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/earnings/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteEarning(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Investments: /v1/investments
// ============================================================

type investmentRequest struct {
	Type   string          `json:"type" validate:"required,max=100"`
	Amount decimal.Decimal `json:"amount"`
}

// listInvestmentsHandler returns the total alongside the breakdown.
func listInvestmentsHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/investments")
		defer span.End()

		summary, err := svc.InvestmentSummary(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}

func createInvestmentHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/investments")
		defer span.End()

		var req investmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		inv, err := svc.CreateInvestment(ctx, &domain.Investment{
			OwnerID: OwnerIDFromContext(ctx),
			Type:    req.Type,
			Amount:  req.Amount,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, inv)
	}
}

func getInvestmentHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/investments/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		inv, err := svc.GetInvestment(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func updateInvestmentHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/investments/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req investmentRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		inv, err := svc.UpdateInvestment(ctx, &domain.Investment{
			ID:      id,
			OwnerID: OwnerIDFromContext(ctx),
			Type:    req.Type,
			Amount:  req.Amount,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func deleteInvestmentHandler(svc *service.RecordsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/investments/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteInvestment(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Transactions & reports
// ============================================================

func listTransactionsHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()

		rng, err := dateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		list, err := svc.Transactions(ctx, OwnerIDFromContext(ctx), rng)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, list)
	}
}

// createTransactionHandler rejects writes: transactions are derived.
func createTransactionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusBadRequest,
			"transactions are derived; use the /earnings or /expenses endpoints to create them")
	}
}

// weeklyReportResponse is sent instead of a file when the week is empty.
type weeklyReportResponse struct {
	Message string `json:"message"`
	*domain.WeeklyReport
}

func weeklyReportHandler(svc *service.ReportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/weekly")
		defer span.End()

		format := r.URL.Query().Get("format")
		if format == "" {
			format = domain.ReportFormatExcel
		}
		if format != domain.ReportFormatExcel && format != domain.ReportFormatPDF {
			writeError(w, http.StatusBadRequest, "invalid format; use 'excel' or 'pdf'")
			return
		}

		report, err := svc.WeeklyReport(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if report.Empty() {
			writeJSON(w, http.StatusOK, weeklyReportResponse{
				Message:      "No data available for the report",
				WeeklyReport: report,
			})
			return
		}

		data, contentType, err := svc.RenderWeekly(ctx, report, format)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		ext := "xlsx"
		if format == domain.ReportFormatPDF {
			ext = "pdf"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition",
			`attachment; filename="weekly_report_`+report.To.String()+`.`+ext+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}
}
