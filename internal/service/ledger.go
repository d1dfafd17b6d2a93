package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var ledgerTracer = otel.Tracer("service/ledger")

// writeOptions tunes a single ledger write. internal skips the allocation
// checks and is only set by the recompute path, whose writes are derived
// from already accepted expenses.
type writeOptions struct {
	internal bool
}

// LedgerService keeps every budget's spent total equal to the sum of its
// expenses and refuses expenses that would exceed the allocation.
type LedgerService struct {
	store   port.LedgerStore
	events  eventSink
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedgerService creates a ledger service. events may be nil.
func NewLedgerService(store port.LedgerStore, events port.EventPublisher, metrics *observability.Metrics, logger *zap.Logger) *LedgerService {
	return &LedgerService{
		store:   store,
		events:  eventSink{pub: events, metrics: metrics, logger: logger},
		metrics: metrics,
		logger:  logger,
	}
}

// ============================================================
// Write rules
// ============================================================

// validateExpense checks e against its budget unless the write is internal.
func (s *LedgerService) validateExpense(e *domain.Expense, b *domain.Budget, siblings []domain.Expense, opts writeOptions) error {
	if opts.internal {
		return nil
	}
	return domain.ValidateExpense(e, b, siblings)
}

// validateBudget checks spent against allocated unless the write is internal.
func (s *LedgerService) validateBudget(b *domain.Budget, opts writeOptions) error {
	if opts.internal {
		return nil
	}
	return domain.ValidateBudget(b)
}

func (s *LedgerService) saveBudget(ctx context.Context, tx port.LedgerTx, b *domain.Budget, opts writeOptions) error {
	if err := s.validateBudget(b, opts); err != nil {
		return err
	}
	return tx.UpdateBudget(ctx, b)
}

func (s *LedgerService) saveExpense(ctx context.Context, tx port.LedgerTx, e *domain.Expense, opts writeOptions) error {
	b, err := tx.GetBudgetForUpdate(ctx, e.OwnerID, e.BudgetID)
	if err != nil {
		return err
	}
	siblings, err := tx.ListExpensesByBudget(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list expenses of budget %d: %w", b.ID, err)
	}
	if err := s.validateExpense(e, b, siblings, opts); err != nil {
		return err
	}
	return tx.SaveExpense(ctx, e)
}

// recompute re-sums the budget's expenses and stores the result through an
// internal write.
func (s *LedgerService) recompute(ctx context.Context, tx port.LedgerTx, ownerID, budgetID int64) (*domain.Budget, error) {
	b, err := tx.GetBudgetForUpdate(ctx, ownerID, budgetID)
	if err != nil {
		return nil, err
	}
	expenses, err := tx.ListExpensesByBudget(ctx, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list expenses of budget %d: %w", budgetID, err)
	}

	b.Spent = domain.SumExpenses(expenses)
	if err := s.saveBudget(ctx, tx, b, writeOptions{internal: true}); err != nil {
		return nil, fmt.Errorf("store spent of budget %d: %w", budgetID, err)
	}
	s.metrics.IncrRecompute()
	return b, nil
}

// lockBudgets row-locks the given budgets in ascending ID order.
func lockBudgets(ctx context.Context, tx port.LedgerTx, ownerID int64, ids ...int64) error {
	if len(ids) == 2 && ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	for i, id := range ids {
		if i > 0 && id == ids[i-1] {
			continue
		}
		if _, err := tx.GetBudgetForUpdate(ctx, ownerID, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *LedgerService) rejected(err error, e *domain.Expense) error {
	var over *domain.ErrOverBudget
	if errors.As(err, &over) {
		s.metrics.IncrExpenseRejected()
		s.logger.Info("expense rejected",
			zap.Int64("owner_id", e.OwnerID),
			zap.Int64("budget_id", over.BudgetID),
			zap.String("attempted", over.Attempted.String()),
			zap.String("remaining", over.Remaining.String()),
		)
	}
	return err
}

// ============================================================
// Budgets
// ============================================================

// CreateBudget stores a new budget. Spent always starts at zero.
func (s *LedgerService) CreateBudget(ctx context.Context, b *domain.Budget) (*domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateBudget")
	defer span.End()

	b.Spent = decimal.Zero
	if err := b.Validate(); err != nil {
		return nil, err
	}

	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		return tx.CreateBudget(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}

	s.logger.Info("budget created",
		zap.Int64("owner_id", b.OwnerID),
		zap.Int64("budget_id", b.ID),
		zap.String("category", b.Category),
	)
	return b, nil
}

// UpdateBudget changes category and allocation. The stored spent is kept,
// and lowering the allocation below it is rejected.
func (s *LedgerService) UpdateBudget(ctx context.Context, in *domain.Budget) (*domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateBudget")
	defer span.End()
	span.SetAttributes(attribute.Int64("budget.id", in.ID))

	if err := in.Validate(); err != nil {
		return nil, err
	}

	var out *domain.Budget
	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		cur, err := tx.GetBudgetForUpdate(ctx, in.OwnerID, in.ID)
		if err != nil {
			return err
		}
		cur.Category = in.Category
		cur.Allocated = in.Allocated
		if err := s.saveBudget(ctx, tx, cur, writeOptions{}); err != nil {
			return err
		}
		out = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBudget removes a budget together with its expenses.
func (s *LedgerService) DeleteBudget(ctx context.Context, ownerID, budgetID int64) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteBudget")
	defer span.End()

	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		return tx.DeleteBudget(ctx, ownerID, budgetID)
	})
	if err != nil {
		return err
	}
	s.logger.Info("budget deleted", zap.Int64("owner_id", ownerID), zap.Int64("budget_id", budgetID))
	return nil
}

func (s *LedgerService) GetBudget(ctx context.Context, ownerID, budgetID int64) (*domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetBudget")
	defer span.End()

	return s.store.GetBudget(ctx, ownerID, budgetID)
}

func (s *LedgerService) ListBudgets(ctx context.Context, ownerID int64, f domain.BudgetFilter) ([]domain.Budget, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListBudgets")
	defer span.End()

	return s.store.ListBudgets(ctx, ownerID, f)
}

// Recompute re-derives a budget's spent from its expenses and returns it.
// Running it again without intervening writes yields the same value.
func (s *LedgerService) Recompute(ctx context.Context, ownerID, budgetID int64) (decimal.Decimal, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Recompute")
	defer span.End()

	var spent decimal.Decimal
	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		b, err := s.recompute(ctx, tx, ownerID, budgetID)
		if err != nil {
			return err
		}
		spent = b.Spent
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return spent, nil
}

// ============================================================
// Expenses
// ============================================================

// CreateExpense validates the expense against its budget, stores it and
// recomputes the budget in the same transaction. A rejected expense leaves
// the ledger untouched.
func (s *LedgerService) CreateExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.CreateExpense")
	defer span.End()
	span.SetAttributes(attribute.Int64("budget.id", e.BudgetID))

	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ID = 0

	var budget *domain.Budget
	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		if err := s.saveExpense(ctx, tx, e, writeOptions{}); err != nil {
			return err
		}
		b, err := s.recompute(ctx, tx, e.OwnerID, e.BudgetID)
		budget = b
		return err
	})
	if err != nil {
		return nil, s.rejected(err, e)
	}

	s.accepted(ctx, e, budget)
	return e, nil
}

// UpdateExpense rewrites an expense. When it moves to another budget both
// budgets are recomputed.
func (s *LedgerService) UpdateExpense(ctx context.Context, e *domain.Expense) (*domain.Expense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.UpdateExpense")
	defer span.End()
	span.SetAttributes(attribute.Int64("expense.id", e.ID))

	if err := e.Validate(); err != nil {
		return nil, err
	}

	var budgets []*domain.Budget
	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		prev, err := tx.GetExpenseForUpdate(ctx, e.OwnerID, e.ID)
		if err != nil {
			return err
		}
		if err := lockBudgets(ctx, tx, e.OwnerID, prev.BudgetID, e.BudgetID); err != nil {
			return err
		}
		if err := s.saveExpense(ctx, tx, e, writeOptions{}); err != nil {
			return err
		}

		b, err := s.recompute(ctx, tx, e.OwnerID, e.BudgetID)
		if err != nil {
			return err
		}
		budgets = append(budgets, b)

		if prev.BudgetID != e.BudgetID {
			old, err := s.recompute(ctx, tx, e.OwnerID, prev.BudgetID)
			if err != nil {
				return err
			}
			budgets = append(budgets, old)
		}
		return nil
	})
	if err != nil {
		return nil, s.rejected(err, e)
	}

	s.accepted(ctx, e, budgets...)
	return e, nil
}

// DeleteExpense removes an expense and recomputes its budget.
func (s *LedgerService) DeleteExpense(ctx context.Context, ownerID, expenseID int64) error {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.DeleteExpense")
	defer span.End()
	span.SetAttributes(attribute.Int64("expense.id", expenseID))

	var (
		prev   *domain.Expense
		budget *domain.Budget
	)
	err := s.store.RunInTx(ctx, func(tx port.LedgerTx) error {
		var err error
		prev, err = tx.GetExpenseForUpdate(ctx, ownerID, expenseID)
		if err != nil {
			return err
		}
		if err := lockBudgets(ctx, tx, ownerID, prev.BudgetID); err != nil {
			return err
		}
		if err := tx.DeleteExpense(ctx, ownerID, expenseID); err != nil {
			return err
		}
		budget, err = s.recompute(ctx, tx, ownerID, prev.BudgetID)
		return err
	})
	if err != nil {
		return err
	}

	s.logger.Info("expense deleted",
		zap.Int64("owner_id", ownerID),
		zap.Int64("expense_id", expenseID),
		zap.String("budget_spent", budget.Spent.String()),
	)
	s.events.publish(ctx, domain.EventExpenseDeleted, ownerID, expenseID, prev)
	s.events.publish(ctx, domain.EventBudgetRecomputed, ownerID, budget.ID, budget)
	return nil
}

func (s *LedgerService) GetExpense(ctx context.Context, ownerID, expenseID int64) (*domain.Expense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.GetExpense")
	defer span.End()

	return s.store.GetExpense(ctx, ownerID, expenseID)
}

func (s *LedgerService) ListExpenses(ctx context.Context, ownerID int64, f domain.ExpenseFilter) ([]domain.Expense, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.ListExpenses")
	defer span.End()

	return s.store.ListExpenses(ctx, ownerID, f)
}

func (s *LedgerService) accepted(ctx context.Context, e *domain.Expense, budgets ...*domain.Budget) {
	s.metrics.IncrExpenseAccepted()
	for _, b := range budgets {
		s.logger.Info("expense accepted",
			zap.Int64("owner_id", e.OwnerID),
			zap.Int64("expense_id", e.ID),
			zap.Int64("budget_id", b.ID),
			zap.String("budget_spent", b.Spent.String()),
			zap.String("budget_allocated", b.Allocated.String()),
		)
	}

	s.events.publish(ctx, domain.EventExpenseSaved, e.OwnerID, e.ID, e)
	for _, b := range budgets {
		s.events.publish(ctx, domain.EventBudgetRecomputed, e.OwnerID, b.ID, b)
	}
}
