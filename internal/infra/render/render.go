// Package render turns invoices and weekly reports into PDF and Excel
// documents. It only reads persisted values; totals come from
// domain.ComputeTotals so the printed figures match the stored ones.
package render

import (
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/shopspring/decimal"
)

var (
	_ port.InvoiceRenderer = (*Renderer)(nil)
	_ port.ReportRenderer  = (*Renderer)(nil)
)

// Company is the letterhead printed on invoices and reports.
type Company struct {
	Name        string
	Address     string
	TIN         string
	Phone       string
	BankAccount string
}

// Renderer implements both renderer ports.
type Renderer struct {
	company Company
}

// New creates a renderer for company.
func New(company Company) *Renderer {
	return &Renderer{company: company}
}

// formatMoney renders d with two decimals and thousands separators.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func reportPeriod(r *domain.WeeklyReport) string {
	return "Period: " + r.From.String() + " to " + r.To.String()
}
