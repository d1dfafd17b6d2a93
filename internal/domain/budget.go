package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Budget & Expense
// ============================================================

// Budget is a spending allocation for one category. Spent is derived from
// the budget's expenses; clients never write it after creation.
type Budget struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"-"`
	Category  string          `json:"category"`
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Remaining is what is left of the allocation.
func (b *Budget) Remaining() decimal.Decimal {
	return b.Allocated.Sub(b.Spent)
}

// Validate checks the client-writable fields.
func (b *Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return &ErrValidation{Field: "category", Message: "category is required"}
	}
	if b.Allocated.IsNegative() {
		return &ErrValidation{Field: "allocated", Message: "allocated must be zero or greater"}
	}
	if err := checkMoney("allocated", b.Allocated); err != nil {
		return err
	}
	if b.Spent.IsNegative() {
		return &ErrValidation{Field: "spent", Message: "spent must be zero or greater"}
	}
	if err := checkMoney("spent", b.Spent); err != nil {
		return err
	}
	return nil
}

// Expense is a single spend recorded against exactly one budget.
type Expense struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"-"`
	BudgetID  int64           `json:"budget"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

// Validate checks the expense's own fields. The allocation check lives in
// ValidateExpense because it needs the budget and its other expenses.
func (e *Expense) Validate() error {
	if e.BudgetID <= 0 {
		return &ErrValidation{Field: "budget", Message: "budget is required"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ErrValidation{Field: "category", Message: "category is required"}
	}
	if !e.Amount.IsPositive() {
		return &ErrValidation{Field: "amount", Message: "amount must be greater than zero"}
	}
	if err := checkMoney("amount", e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "date is required"}
	}
	return nil
}

// ExpenseFilter narrows expense list queries.
type ExpenseFilter struct {
	BudgetID int64
	Category string
	Range    DateRange
}

// BudgetFilter narrows budget list queries.
type BudgetFilter struct {
	Category string
}

// ============================================================
// Ledger rules
// ============================================================

// SumExpenses adds up the amounts of expenses.
func SumExpenses(expenses []Expense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

// ValidateExpense rejects e when, together with the budget's other
// expenses, it would exceed the allocation. siblings may include e itself
// (an update); it is skipped by ID. A new expense has ID 0 and matches none.
func ValidateExpense(e *Expense, b *Budget, siblings []Expense) error {
	current := decimal.Zero
	for _, s := range siblings {
		if e.ID != 0 && s.ID == e.ID {
			continue
		}
		current = current.Add(s.Amount)
	}

	if current.Add(e.Amount).GreaterThan(b.Allocated) {
		return &ErrOverBudget{
			Scope:     OverBudgetExpense,
			BudgetID:  b.ID,
			Category:  b.Category,
			Attempted: e.Amount,
			Remaining: b.Allocated.Sub(current),
		}
	}
	return nil
}

// ValidateBudget rejects a budget whose spent exceeds its allocation.
func ValidateBudget(b *Budget) error {
	if b.Spent.GreaterThan(b.Allocated) {
		return &ErrOverBudget{
			Scope:     OverBudgetBudget,
			BudgetID:  b.ID,
			Category:  b.Category,
			Attempted: b.Spent,
			Remaining: b.Allocated,
		}
	}
	return nil
}
