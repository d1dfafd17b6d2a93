package domain

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Transaction kinds in the aggregated view.
const (
	TransactionIncome  = "Income"
	TransactionExpense = "Expense"
)

// Transaction is a read-only row of the combined earnings/expenses view.
type Transaction struct {
	ID          string          `json:"id"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
}

// TransactionList is the response of GET /v1/transactions.
type TransactionList struct {
	Transactions  []Transaction   `json:"transactions"`
	TotalIncome   decimal.Decimal `json:"total_income"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	Balance       decimal.Decimal `json:"balance"`
}

// MergeTransactions builds the combined view, newest first.
func MergeTransactions(earnings []Earning, expenses []Expense) TransactionList {
	out := TransactionList{
		Transactions:  make([]Transaction, 0, len(earnings)+len(expenses)),
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}

	for _, e := range earnings {
		out.TotalIncome = out.TotalIncome.Add(e.Amount)
		out.Transactions = append(out.Transactions, Transaction{
			ID:          "earning-" + strconv.FormatInt(e.ID, 10),
			Date:        e.Date,
			Description: e.Project,
			Category:    "Earnings",
			Amount:      e.Amount,
			Type:        TransactionIncome,
		})
	}
	for _, e := range expenses {
		out.TotalExpenses = out.TotalExpenses.Add(e.Amount)
		out.Transactions = append(out.Transactions, Transaction{
			ID:          "expense-" + strconv.FormatInt(e.ID, 10),
			Date:        e.Date,
			Description: e.Category,
			Category:    e.Category,
			Amount:      e.Amount,
			Type:        TransactionExpense,
		})
	}

	sort.SliceStable(out.Transactions, func(i, j int) bool {
		return out.Transactions[i].Date.After(out.Transactions[j].Date.Time)
	})
	out.Balance = out.TotalIncome.Sub(out.TotalExpenses)
	return out
}
