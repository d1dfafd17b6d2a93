package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Report formats.
const (
	ReportFormatExcel = "excel"
	ReportFormatPDF   = "pdf"
)

// ReportPeriodDays is the span of the weekly report, ending today.
const ReportPeriodDays = 7

// ReportRow is one earning or expense line of the weekly report.
type ReportRow struct {
	Date     Date            `json:"date"`
	Type     string          `json:"type"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ReportBudget is one budget line of the weekly report.
type ReportBudget struct {
	Category  string          `json:"category"`
	Allocated decimal.Decimal `json:"allocated"`
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// WeeklyReport aggregates one owner's activity for the last seven days.
type WeeklyReport struct {
	Title         string          `json:"-"`
	From          Date            `json:"from"`
	To            Date            `json:"to"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	ProfitLoss    decimal.Decimal `json:"profit_loss"`
	Transactions  []ReportRow     `json:"transactions"`
	Budgets       []ReportBudget  `json:"budgets"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// Empty reports whether there is nothing to render.
func (r *WeeklyReport) Empty() bool {
	return len(r.Transactions) == 0 && len(r.Budgets) == 0
}

// ReportPeriod returns the inclusive day range ending on now.
func ReportPeriod(now time.Time) (Date, Date) {
	to := NewDate(now)
	return NewDate(to.AddDate(0, 0, -ReportPeriodDays)), to
}

// BuildWeeklyReport assembles the report from already filtered rows.
func BuildWeeklyReport(title string, from, to Date, earnings []Earning, expenses []Expense, budgets []Budget, now time.Time) *WeeklyReport {
	r := &WeeklyReport{
		Title:         title,
		From:          from,
		To:            to,
		TotalEarnings: decimal.Zero,
		TotalExpenses: decimal.Zero,
		Transactions:  make([]ReportRow, 0, len(earnings)+len(expenses)),
		Budgets:       make([]ReportBudget, 0, len(budgets)),
		GeneratedAt:   now,
	}

	for _, e := range earnings {
		r.TotalEarnings = r.TotalEarnings.Add(e.Amount)
		r.Transactions = append(r.Transactions, ReportRow{Date: e.Date, Type: "Earning", Category: e.Project, Amount: e.Amount})
	}
	for _, e := range expenses {
		r.TotalExpenses = r.TotalExpenses.Add(e.Amount)
		r.Transactions = append(r.Transactions, ReportRow{Date: e.Date, Type: "Expense", Category: e.Category, Amount: e.Amount})
	}
	for _, b := range budgets {
		r.Budgets = append(r.Budgets, ReportBudget{
			Category:  b.Category,
			Allocated: b.Allocated,
			Spent:     b.Spent,
			Remaining: b.Allocated.Sub(b.Spent),
		})
	}

	r.ProfitLoss = r.TotalEarnings.Sub(r.TotalExpenses)
	return r
}
