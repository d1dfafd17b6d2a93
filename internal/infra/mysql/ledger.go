package mysql

import (
	"context"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RunInTx runs fn inside a gorm transaction. Row locks taken through the
// ledgerTx hold until commit or rollback.
func (s *Store) RunInTx(ctx context.Context, fn func(tx port.LedgerTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&ledgerTx{db: tx})
	})
}

type ledgerTx struct {
	db *gorm.DB
}

func (tx *ledgerTx) GetBudgetForUpdate(ctx context.Context, ownerID, budgetID int64) (*domain.Budget, error) {
	var row budgetRow
	q := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", budgetID, ownerID)
	if err := first(q, &row, "budget", budgetID); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (tx *ledgerTx) CreateBudget(ctx context.Context, b *domain.Budget) error {
	row := budgetRow{
		OwnerID:   b.OwnerID,
		Category:  b.Category,
		Allocated: b.Allocated,
		Spent:     b.Spent,
	}
	if err := tx.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	*b = *row.toDomain()
	return nil
}

func (tx *ledgerTx) UpdateBudget(ctx context.Context, b *domain.Budget) error {
	res := tx.db.WithContext(ctx).Model(&budgetRow{}).
		Where("id = ? AND owner_id = ?", b.ID, b.OwnerID).
		Updates(map[string]any{
			"category":  b.Category,
			"allocated": b.Allocated,
			"spent":     b.Spent,
		})
	if res.Error != nil {
		return res.Error
	}
	// MySQL reports zero affected rows when nothing changed, so re-read
	// instead of trusting RowsAffected.
	var row budgetRow
	if err := first(tx.db.WithContext(ctx).Where("id = ? AND owner_id = ?", b.ID, b.OwnerID), &row, "budget", b.ID); err != nil {
		return err
	}
	*b = *row.toDomain()
	return nil
}

func (tx *ledgerTx) DeleteBudget(ctx context.Context, ownerID, budgetID int64) error {
	db := tx.db.WithContext(ctx)
	if err := db.Where("budget_id = ? AND owner_id = ?", budgetID, ownerID).Delete(&expenseRow{}).Error; err != nil {
		return err
	}
	return affected(db.Where("id = ? AND owner_id = ?", budgetID, ownerID).Delete(&budgetRow{}), "budget", budgetID)
}

func (tx *ledgerTx) GetExpenseForUpdate(ctx context.Context, ownerID, expenseID int64) (*domain.Expense, error) {
	var row expenseRow
	q := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", expenseID, ownerID)
	if err := first(q, &row, "expense", expenseID); err != nil {
		return nil, err
	}
	e := row.toDomain()
	return &e, nil
}

func (tx *ledgerTx) ListExpensesByBudget(ctx context.Context, budgetID int64) ([]domain.Expense, error) {
	var rows []expenseRow
	err := tx.db.WithContext(ctx).
		Where("budget_id = ?", budgetID).
		Order("date DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return expensesOf(rows), nil
}

func (tx *ledgerTx) SaveExpense(ctx context.Context, e *domain.Expense) error {
	db := tx.db.WithContext(ctx)
	row := expenseRowOf(e)
	if e.ID == 0 {
		if err := db.Create(row).Error; err != nil {
			return err
		}
		*e = row.toDomain()
		return nil
	}

	res := db.Model(&expenseRow{}).
		Where("id = ? AND owner_id = ?", e.ID, e.OwnerID).
		Updates(map[string]any{
			"budget_id": row.BudgetID,
			"category":  row.Category,
			"amount":    row.Amount,
			"date":      row.Date,
		})
	if res.Error != nil {
		return res.Error
	}
	var saved expenseRow
	if err := first(db.Where("id = ? AND owner_id = ?", e.ID, e.OwnerID), &saved, "expense", e.ID); err != nil {
		return err
	}
	*e = saved.toDomain()
	return nil
}

func (tx *ledgerTx) DeleteExpense(ctx context.Context, ownerID, expenseID int64) error {
	res := tx.db.WithContext(ctx).Where("id = ? AND owner_id = ?", expenseID, ownerID).Delete(&expenseRow{})
	return affected(res, "expense", expenseID)
}

// ============================================================
// Reads outside a transaction
// ============================================================

func (s *Store) GetBudget(ctx context.Context, ownerID, budgetID int64) (*domain.Budget, error) {
	var row budgetRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", budgetID, ownerID), &row, "budget", budgetID); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (s *Store) ListBudgets(ctx context.Context, ownerID int64, f domain.BudgetFilter) ([]domain.Budget, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	var rows []budgetRow
	if err := q.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Budget, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (s *Store) GetExpense(ctx context.Context, ownerID, expenseID int64) (*domain.Expense, error) {
	var row expenseRow
	if err := first(s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", expenseID, ownerID), &row, "expense", expenseID); err != nil {
		return nil, err
	}
	e := row.toDomain()
	return &e, nil
}

func (s *Store) ListExpenses(ctx context.Context, ownerID int64, f domain.ExpenseFilter) ([]domain.Expense, error) {
	q := s.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if f.BudgetID != 0 {
		q = q.Where("budget_id = ?", f.BudgetID)
	}
	if f.Category != "" {
		q = q.Where("LOWER(category) = LOWER(?)", f.Category)
	}
	q = inRange(q, "date", f.Range)

	var rows []expenseRow
	if err := q.Order("date DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return expensesOf(rows), nil
}

// inRange narrows q to rows whose column falls inside r, both ends
// inclusive.
func inRange(q *gorm.DB, column string, r domain.DateRange) *gorm.DB {
	if r.From != nil {
		q = q.Where(column+" >= ?", r.From.Time)
	}
	if r.To != nil {
		q = q.Where(column+" <= ?", r.To.Time)
	}
	return q
}
