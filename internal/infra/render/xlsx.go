package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	transactionsSheet = "Transactions"
	budgetsSheet      = "Budgets"
	// Data tables start below the title and summary lines.
	headerRow = 6
)

type sheetStyles struct {
	title, summary, header, money, negative int
}

func newSheetStyles(f *excelize.File) (*sheetStyles, error) {
	var (
		s   sheetStyles
		err error
	)
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, err
	}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4F81BD"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	}); err != nil {
		return nil, err
	}
	numFmt := "#,##0.00"
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return nil, err
	}
	if s.negative, err = f.NewStyle(&excelize.Style{
		CustomNumFmt: &numFmt,
		Font:         &excelize.Font{Color: "9C0006"},
		Fill:         excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFC7CE"}},
	}); err != nil {
		return nil, err
	}
	return &s, nil
}

// RenderWeeklyXLSX writes a workbook with a Transactions sheet (title,
// period, totals, rows) and a Budgets sheet.
func (r *Renderer) RenderWeeklyXLSX(w io.Writer, rep *domain.WeeklyReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(budgetsSheet); err != nil {
		return err
	}
	st, err := newSheetStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	if err := writeTransactions(f, st, rep); err != nil {
		return fmt.Errorf("transactions sheet: %w", err)
	}
	budgetTitle := strings.Replace(rep.Title, "Financial Report", "Budget Overview", 1)
	if err := writeBudgets(f, st, rep, budgetTitle); err != nil {
		return fmt.Errorf("budgets sheet: %w", err)
	}

	f.SetActiveSheet(0)
	return f.Write(w)
}

func writeTitle(f *excelize.File, st *sheetStyles, sheet, title string, lines ...string) error {
	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", st.title); err != nil {
		return err
	}
	for i, line := range lines {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetCellValue(sheet, cell, line); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.summary); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, st *sheetStyles, sheet string, names []string) error {
	cell, err := excelize.CoordinatesToCellName(1, headerRow)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &names); err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(len(names), headerRow)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, end, st.header)
}

func writeTransactions(f *excelize.File, st *sheetStyles, rep *domain.WeeklyReport) error {
	sheet := transactionsSheet
	if err := writeTitle(f, st, sheet, rep.Title,
		reportPeriod(rep),
		"Total Earnings: "+formatMoney(rep.TotalEarnings),
		"Total Expenses: "+formatMoney(rep.TotalExpenses),
		"Profit/Loss: "+formatMoney(rep.ProfitLoss),
	); err != nil {
		return err
	}
	if err := writeHeader(f, st, sheet, []string{"Date", "Type", "Category", "Amount"}); err != nil {
		return err
	}

	for i, t := range rep.Transactions {
		row := headerRow + 1 + i
		amount, _ := t.Amount.Float64()
		values := []any{t.Date.String(), t.Type, t.Category, amount}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), st.money); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "B", 15); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "C", "C", 25); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "D", "D", 15)
}

func writeBudgets(f *excelize.File, st *sheetStyles, rep *domain.WeeklyReport, title string) error {
	sheet := budgetsSheet
	if err := writeTitle(f, st, sheet, title, reportPeriod(rep)); err != nil {
		return err
	}
	if err := writeHeader(f, st, sheet, []string{"Category", "Allocated", "Spent", "Remaining"}); err != nil {
		return err
	}

	for i, b := range rep.Budgets {
		row := headerRow + 1 + i
		allocated, _ := b.Allocated.Float64()
		spent, _ := b.Spent.Float64()
		remaining, _ := b.Remaining.Float64()
		values := []any{b.Category, allocated, spent, remaining}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), st.money); err != nil {
			return err
		}
		style := st.money
		if b.Remaining.IsNegative() {
			style = st.negative
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), style); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "A", "A", 25); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "D", 15)
}
