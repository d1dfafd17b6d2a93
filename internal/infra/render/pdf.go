package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/go-pdf/fpdf"
)

// Light blue used for table headers and total rows.
const fillR, fillG, fillB = 221, 235, 247

const lineHeight = 6.0

func newDocument(title string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 12, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetTitle(title, true)
	pdf.SetCreator("finbackend", true)
	pdf.AddPage()
	return pdf, pdf.UnicodeTranslatorFromDescriptor("")
}

func contentWidth(pdf *fpdf.Fpdf) float64 {
	w, _ := pdf.GetPageSize()
	l, _, r, _ := pdf.GetMargins()
	return w - l - r
}

// ============================================================
// Invoice
// ============================================================

// RenderInvoicePDF writes a one-invoice PDF: letterhead, client block,
// item table with the total breakdown, and the approval footer.
func (r *Renderer) RenderInvoicePDF(w io.Writer, inv *domain.Invoice) error {
	pdf, tr := newDocument("Invoice " + inv.InvoiceNumber)
	width := contentWidth(pdf)

	// Letterhead
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(width, 8, tr(r.company.Name), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	for _, line := range []string{r.company.Address, r.company.TIN, r.company.Phone} {
		if line != "" {
			pdf.CellFormat(width, 4.5, tr(line), "", 1, "R", false, 0, "")
		}
	}
	pdf.SetDrawColor(0, 128, 0)
	pdf.SetLineWidth(1)
	y := pdf.GetY() + 2
	l, _, _, _ := pdf.GetMargins()
	pdf.Line(l, y, l+width, y)
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)
	pdf.Ln(6)

	// Client block
	left, right := width*0.6, width*0.4
	rows := [][2]string{
		{inv.ClientName, inv.Date.Format("2 January 2006")},
		{inv.ClientLocation, "Inv No. " + inv.InvoiceNumber},
		{"Address: " + inv.ClientAddress, ""},
		{"TIN: " + inv.ClientTIN, ""},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.CellFormat(left, 5, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(right, 5, tr(row[1]), "", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// Heading
	pdf.SetFillColor(fillR, fillG, fillB)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(width, 7, tr(inv.Heading), "LTR", 1, "C", true, 0, "")
	pdf.CellFormat(width, 7, tr(inv.Subtitle), "LBR", 1, "C", true, 0, "")
	pdf.Ln(1)

	r.invoiceItems(pdf, tr, inv, width)
	pdf.Ln(8)

	// Footer
	half := width / 2
	footer := [][2]string{
		{"Prepared by:", "Client's Approval:"},
		{"Account details", "Sign: ........................................"},
		{r.company.Name, "Date: ........................................"},
		{"Account No: " + r.company.BankAccount, ""},
		{"Approved by:", ""},
		{"GM: ........................................", ""},
	}
	for i, row := range footer {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, 9)
		pdf.CellFormat(half, 5, tr(row[0]), "", 0, "L", false, 0, "")
		pdf.CellFormat(half, 5, tr(row[1]), "", 1, "L", false, 0, "")
	}
	if inv.SignatureChoice != nil {
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(half, 5, tr("Signed: "+*inv.SignatureChoice), "", 1, "L", false, 0, "")
	}

	return pdf.Output(w)
}

func (r *Renderer) invoiceItems(pdf *fpdf.Fpdf, tr func(string) string, inv *domain.Invoice, width float64) {
	headers := []string{"S/N", "ITEMS DESCRIPTION", "QUANTITY", "RATE (TZS)", "AMOUNT (TZS)"}
	ratios := []float64{30, 295, 70, 75, 75}
	if inv.IncludeDays {
		headers = []string{"S/N", "ITEMS DESCRIPTION", "QUANTITY", "DAYS", "RATE (TZS)", "AMOUNT (TZS)"}
		ratios = []float64{30, 250, 70, 45, 75, 75}
	}
	sum := 0.0
	for _, v := range ratios {
		sum += v
	}
	cols := make([]float64, len(ratios))
	for i, v := range ratios {
		cols[i] = v / sum * width
	}
	last := len(cols) - 1

	pdf.SetFont("Helvetica", "B", 8)
	for i, h := range headers {
		pdf.CellFormat(cols[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for idx, it := range inv.Items {
		cells := []string{strconv.Itoa(idx + 1), tr(it.Description), it.Quantity.String()}
		aligns := []string{"C", "L", "C"}
		if inv.IncludeDays {
			cells = append(cells, it.DaysOrOne().String())
			aligns = append(aligns, "C")
		}
		cells = append(cells, formatMoney(it.UnitPrice), formatMoney(it.LineTotal(inv.IncludeDays)))
		aligns = append(aligns, "R", "R")
		for i, c := range cells {
			pdf.CellFormat(cols[i], lineHeight, c, "1", 0, aligns[i], false, 0, "")
		}
		pdf.Ln(-1)
	}

	totals := inv.Totals()
	type totalRow struct {
		label, rate, amount string
	}
	rows := []totalRow{{label: "Direct Costs", amount: formatMoney(totals.Subtotal)}}
	if inv.IncludeAgentFee {
		rows = append(rows,
			totalRow{label: "Agent Fee", amount: formatMoney(totals.AgentFee)},
			totalRow{label: "Total Cost (exclusive VAT)", amount: formatMoney(totals.WithAgent)},
		)
	}
	rows = append(rows,
		totalRow{label: "VAT", rate: inv.VATRate.String() + "%", amount: formatMoney(totals.VAT)},
		totalRow{label: "Total with VAT", amount: formatMoney(totals.Total)},
	)

	for _, row := range rows {
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(cols[0], lineHeight, "", "L", 0, "", true, 0, "")
		pdf.SetFont("Helvetica", "B", 8)
		pdf.CellFormat(cols[1], lineHeight, row.label, "", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 8)
		for i := 2; i < last-1; i++ {
			pdf.CellFormat(cols[i], lineHeight, "", "", 0, "", true, 0, "")
		}
		pdf.CellFormat(cols[last-1], lineHeight, row.rate, "", 0, "C", true, 0, "")
		pdf.CellFormat(cols[last], lineHeight, row.amount, "1", 1, "R", true, 0, "")
	}
}

// ============================================================
// Weekly report
// ============================================================

// RenderWeeklyPDF writes the weekly report: summary, budgets and the
// week's transactions.
func (r *Renderer) RenderWeeklyPDF(w io.Writer, rep *domain.WeeklyReport) error {
	pdf, tr := newDocument(rep.Title)
	width := contentWidth(pdf)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(width, 9, tr(rep.Title), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(width, 6, reportPeriod(rep), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, width, "Financial Summary")
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range [][2]string{
		{"Total Earnings:", formatMoney(rep.TotalEarnings)},
		{"Total Expenses:", formatMoney(rep.TotalExpenses)},
		{"Profit/Loss:", formatMoney(rep.ProfitLoss)},
	} {
		pdf.CellFormat(width*0.5, lineHeight, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(width*0.3, lineHeight, row[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, width, "Budgets")
	budgetCols := []float64{width * 0.34, width * 0.22, width * 0.22, width * 0.22}
	tableHeader(pdf, budgetCols, "Category", "Allocated", "Spent", "Remaining")
	if len(rep.Budgets) == 0 {
		pdf.CellFormat(width, lineHeight, "No budgets available", "1", 1, "C", false, 0, "")
	}
	for _, b := range rep.Budgets {
		pdf.CellFormat(budgetCols[0], lineHeight, tr(b.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(budgetCols[1], lineHeight, formatMoney(b.Allocated), "1", 0, "R", false, 0, "")
		pdf.CellFormat(budgetCols[2], lineHeight, formatMoney(b.Spent), "1", 0, "R", false, 0, "")
		pdf.CellFormat(budgetCols[3], lineHeight, formatMoney(b.Remaining), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, width, "Transactions (This Week)")
	txCols := []float64{width * 0.2, width * 0.2, width * 0.36, width * 0.24}
	tableHeader(pdf, txCols, "Date", "Type", "Category", "Amount")
	if len(rep.Transactions) == 0 {
		pdf.CellFormat(width, lineHeight, "No transactions available", "1", 1, "C", false, 0, "")
	}
	for _, t := range rep.Transactions {
		pdf.CellFormat(txCols[0], lineHeight, t.Date.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(txCols[1], lineHeight, t.Type, "1", 0, "C", false, 0, "")
		pdf.CellFormat(txCols[2], lineHeight, tr(t.Category), "1", 0, "L", false, 0, "")
		pdf.CellFormat(txCols[3], lineHeight, formatMoney(t.Amount), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(width, 5, tr(fmt.Sprintf("Generated by %s Financial System", r.company.Name)), "", 1, "L", false, 0, "")
	pdf.CellFormat(width, 5, "Report Date: "+rep.GeneratedAt.Format(domain.DateLayout), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

func section(pdf *fpdf.Fpdf, width float64, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(width, 8, title, "", 1, "L", false, 0, "")
}

func tableHeader(pdf *fpdf.Fpdf, cols []float64, names ...string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(fillR, fillG, fillB)
	for i, n := range names {
		pdf.CellFormat(cols[i], 7, n, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Helvetica", "", 9)
}
