package handler

import (
	"net/http"
	"strconv"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Budgets: /v1/budgets
// ============================================================

// budgetRequest is the writable part of a budget. spent is derived and
// ignored when sent.
type budgetRequest struct {
	Category  string          `json:"category" validate:"required,max=100"`
	Allocated decimal.Decimal `json:"allocated"`
}

func listBudgetsHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets")
		defer span.End()

		budgets, err := svc.ListBudgets(ctx, OwnerIDFromContext(ctx), domain.BudgetFilter{
			Category: r.URL.Query().Get("category"),
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Budget]{Data: budgets, Total: len(budgets)})
	}
}

func createBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/budgets")
		defer span.End()

		var req budgetRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		b, err := svc.CreateBudget(ctx, &domain.Budget{
			OwnerID:   OwnerIDFromContext(ctx),
			Category:  req.Category,
			Allocated: req.Allocated,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, b)
	}
}

func getBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		b, err := svc.GetBudget(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, b)
	}
}

func updateBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/budgets/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		span.SetAttributes(attribute.Int64("budget.id", id))

		var req budgetRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		b, err := svc.UpdateBudget(ctx, &domain.Budget{
			ID:        id,
			OwnerID:   OwnerIDFromContext(ctx),
			Category:  req.Category,
			Allocated: req.Allocated,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, b)
	}
}

func deleteBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/budgets/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteBudget(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// recomputeBudgetHandler re-derives spent from the stored expenses.
func recomputeBudgetHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/budgets/{id}/recompute")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		spent, err := svc.Recompute(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"id": id, "spent": spent})
	}
}

// ============================================================
// Expenses: /v1/expenses
// ============================================================

type expenseRequest struct {
	Budget   int64           `json:"budget" validate:"required,gt=0"`
	Category string          `json:"category" validate:"required,max=100"`
	Amount   decimal.Decimal `json:"amount"`
	Date     domain.Date     `json:"date"`
}

func (req *expenseRequest) toDomain(ownerID, id int64) *domain.Expense {
	return &domain.Expense{
		ID:       id,
		OwnerID:  ownerID,
		BudgetID: req.Budget,
		Category: req.Category,
		Amount:   req.Amount,
		Date:     req.Date,
	}
}

func listExpensesHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses")
		defer span.End()

		rng, err := dateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		f := domain.ExpenseFilter{Category: r.URL.Query().Get("category"), Range: rng}
		if v := r.URL.Query().Get("budget"); v != "" {
			f.BudgetID, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid budget")
				return
			}
		}

		expenses, err := svc.ListExpenses(ctx, OwnerIDFromContext(ctx), f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Expense]{Data: expenses, Total: len(expenses)})
	}
}

func createExpenseHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/expenses")
		defer span.End()

		var req expenseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.Int64("budget.id", req.Budget))

		e, err := svc.CreateExpense(ctx, req.toDomain(OwnerIDFromContext(ctx), 0))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, e)
	}
}

func getExpenseHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/expenses/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		e, err := svc.GetExpense(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, e)
	}
}

func updateExpenseHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/expenses/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req expenseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.Int64("expense.id", id), attribute.Int64("budget.id", req.Budget))

		e, err := svc.UpdateExpense(ctx, req.toDomain(OwnerIDFromContext(ctx), id))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, e)
	}
}

func deleteExpenseHandler(svc *service.LedgerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/expenses/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.DeleteExpense(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
