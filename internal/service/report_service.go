package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var reportTracer = otel.Tracer("service/report")

// ReportService builds the read-only views over earnings and expenses: the
// transaction list and the weekly report.
type ReportService struct {
	earnings port.EarningStore
	ledger   port.LedgerStore
	renderer port.ReportRenderer
	company  string
	logger   *zap.Logger
	now      func() time.Time
}

// NewReportService creates a report service. company names the business
// in report titles.
func NewReportService(earnings port.EarningStore, ledger port.LedgerStore, renderer port.ReportRenderer, company string, logger *zap.Logger) *ReportService {
	return &ReportService{
		earnings: earnings,
		ledger:   ledger,
		renderer: renderer,
		company:  company,
		logger:   logger,
		now:      time.Now,
	}
}

// ============================================================
// Transactions: GET /v1/transactions
// ============================================================

// Transactions merges the owner's earnings and expenses in r, newest first.
func (s *ReportService) Transactions(ctx context.Context, ownerID int64, r domain.DateRange) (*domain.TransactionList, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.Transactions")
	defer span.End()

	earnings, expenses, _, err := s.fetch(ctx, ownerID, r, false)
	if err != nil {
		return nil, err
	}
	list := domain.MergeTransactions(earnings, expenses)
	return &list, nil
}

// ============================================================
// Weekly report: GET /v1/reports/weekly
// ============================================================

// WeeklyReport aggregates the last seven days of the owner's activity.
func (s *ReportService) WeeklyReport(ctx context.Context, ownerID int64) (*domain.WeeklyReport, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.WeeklyReport")
	defer span.End()

	now := s.now()
	from, to := domain.ReportPeriod(now)
	span.SetAttributes(attribute.String("report.from", from.String()), attribute.String("report.to", to.String()))

	earnings, expenses, budgets, err := s.fetch(ctx, ownerID, domain.DateRange{From: &from, To: &to}, true)
	if err != nil {
		return nil, err
	}

	title := s.company + " Weekly Financial Report"
	return domain.BuildWeeklyReport(title, from, to, earnings, expenses, budgets, now), nil
}

// RenderWeekly renders the report in format. It returns the bytes and the
// content type.
func (s *ReportService) RenderWeekly(ctx context.Context, report *domain.WeeklyReport, format string) ([]byte, string, error) {
	_, span := reportTracer.Start(ctx, "ReportService.RenderWeekly")
	defer span.End()
	span.SetAttributes(attribute.String("report.format", format))

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case domain.ReportFormatExcel:
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = s.renderer.RenderWeeklyXLSX(&buf, report)
	case domain.ReportFormatPDF:
		contentType = "application/pdf"
		err = s.renderer.RenderWeeklyPDF(&buf, report)
	default:
		return nil, "", &domain.ErrValidation{Field: "format", Message: "format must be excel or pdf"}
	}
	if err != nil {
		return nil, "", fmt.Errorf("render weekly report: %w", err)
	}

	s.logger.Info("weekly report rendered",
		zap.String("format", format),
		zap.Int("rows", len(report.Transactions)),
		zap.Int("bytes", buf.Len()),
	)
	return buf.Bytes(), contentType, nil
}

// fetch loads earnings and expenses in r, and budgets when withBudgets is
// set, concurrently.
func (s *ReportService) fetch(ctx context.Context, ownerID int64, r domain.DateRange, withBudgets bool) ([]domain.Earning, []domain.Expense, []domain.Budget, error) {
	var (
		earnings []domain.Earning
		expenses []domain.Expense
		budgets  []domain.Budget
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e, err := s.earnings.ListEarnings(gCtx, ownerID, domain.EarningFilter{Range: r})
		if err != nil {
			return fmt.Errorf("list earnings: %w", err)
		}
		earnings = e
		return nil
	})

	g.Go(func() error {
		e, err := s.ledger.ListExpenses(gCtx, ownerID, domain.ExpenseFilter{Range: r})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		expenses = e
		return nil
	})

	if withBudgets {
		g.Go(func() error {
			b, err := s.ledger.ListBudgets(gCtx, ownerID, domain.BudgetFilter{})
			if err != nil {
				return fmt.Errorf("list budgets: %w", err)
			}
			budgets = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return earnings, expenses, budgets, nil
}
