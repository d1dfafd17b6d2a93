package domain_test

import (
	"testing"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestMergeTransactions(t *testing.T) {
	earnings := []domain.Earning{
		{ID: 1, Project: "Campaign A", Amount: dec("500"), Date: mustDate(t, "2026-01-02")},
	}
	expenses := []domain.Expense{
		{ID: 7, Category: "Printing", Amount: dec("120"), Date: mustDate(t, "2026-01-05")},
		{ID: 8, Category: "Fuel", Amount: dec("30"), Date: mustDate(t, "2026-01-01")},
	}

	got := domain.MergeTransactions(earnings, expenses)

	require.Len(t, got.Transactions, 3)
	assert.Equal(t, "expense-7", got.Transactions[0].ID)
	assert.Equal(t, domain.TransactionIncome, got.Transactions[1].Type)
	assert.Equal(t, "expense-8", got.Transactions[2].ID)
	assert.True(t, got.Balance.Equal(dec("350")))
}

func TestBuildWeeklyReport(t *testing.T) {
	from, to := mustDate(t, "2026-01-01"), mustDate(t, "2026-01-08")
	r := domain.BuildWeeklyReport("Weekly", from, to,
		[]domain.Earning{{Project: "A", Amount: dec("100"), Date: to}},
		[]domain.Expense{{Category: "B", Amount: dec("250"), Date: to}},
		[]domain.Budget{{Category: "B", Allocated: dec("300"), Spent: dec("250")}},
		to.Time,
	)

	assert.False(t, r.Empty())
	assert.True(t, r.ProfitLoss.Equal(dec("-150")))
	require.Len(t, r.Budgets, 1)
	assert.True(t, r.Budgets[0].Remaining.Equal(dec("50")))
}
