package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testRenderer() *Renderer {
	return New(Company{
		Name:        "GINYE NIFFER",
		Address:     "P.O.BOX 13275, DAR ES SALAAM",
		TIN:         "TIN: 112-179-720",
		Phone:       "+255 762 460 846",
		BankAccount: "NMB Bank - 22610041526",
	})
}

func sampleReport() *domain.WeeklyReport {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	from, to := domain.ReportPeriod(now)
	return domain.BuildWeeklyReport("GINYE NIFFER Weekly Financial Report", from, to,
		[]domain.Earning{{Project: "Launch", Amount: dec("3000"), Date: to}},
		[]domain.Expense{{Category: "Ads", Amount: dec("1200.5"), Date: from}},
		[]domain.Budget{{Category: "Ads", Allocated: dec("2000"), Spent: dec("1200.5")}},
		now,
	)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "0.00",
		"12":          "12.00",
		"1234.5":      "1,234.50",
		"1234567.891": "1,234,567.89",
		"-9876543":    "-9,876,543.00",
		"100000":      "100,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(dec(in)), in)
	}
}

func TestRenderInvoicePDF(t *testing.T) {
	sig := domain.SignatureGinye
	days := dec("2")
	inv := &domain.Invoice{
		ClientName:      "Acme Ltd",
		ClientLocation:  "Dar es Salaam",
		Date:            domain.NewDate(time.Now()),
		Heading:         "PROFORMA INVOICE",
		Subtitle:        "Brand activation",
		InvoiceNumber:   "ACM.2026.001",
		VATRate:         dec("18"),
		IncludeDays:     true,
		IncludeAgentFee: true,
		AgentFee:        dec("500"),
		SignatureChoice: &sig,
		Items: []domain.InvoiceItem{
			{Description: "Promoters", Quantity: dec("4"), UnitPrice: dec("2000"), Days: &days},
			{Description: "Café banners", Quantity: dec("3"), UnitPrice: dec("1000")},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, testRenderer().RenderInvoicePDF(&buf, inv))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderWeeklyPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testRenderer().RenderWeeklyPDF(&buf, sampleReport()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}

func TestRenderWeeklyXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testRenderer().RenderWeeklyXLSX(&buf, sampleReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Transactions", "Budgets"}, f.GetSheetList())

	title, err := f.GetCellValue("Transactions", "A1")
	require.NoError(t, err)
	assert.Equal(t, "GINYE NIFFER Weekly Financial Report", title)

	header, err := f.GetCellValue("Transactions", "C6")
	require.NoError(t, err)
	assert.Equal(t, "Category", header)

	category, err := f.GetCellValue("Transactions", "C7")
	require.NoError(t, err)
	assert.Equal(t, "Launch", category)

	budgetTitle, err := f.GetCellValue("Budgets", "A1")
	require.NoError(t, err)
	assert.Equal(t, "GINYE NIFFER Weekly Budget Overview", budgetTitle)

	budget, err := f.GetCellValue("Budgets", "A7")
	require.NoError(t, err)
	assert.Equal(t, "Ads", budget)
}
