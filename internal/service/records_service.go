package service

import (
	"context"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var recordsTracer = otel.Tracer("service/records")

// RecordsService handles the plain owner-scoped records: earnings and
// investments.
type RecordsService struct {
	earnings    port.EarningStore
	investments port.InvestmentStore
	logger      *zap.Logger
}

// NewRecordsService creates a records service.
func NewRecordsService(earnings port.EarningStore, investments port.InvestmentStore, logger *zap.Logger) *RecordsService {
	return &RecordsService{earnings: earnings, investments: investments, logger: logger}
}

// ============================================================
// Earnings
// ============================================================

func (s *RecordsService) CreateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.CreateEarning")
	defer span.End()

	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.ID = 0
	if err := s.earnings.CreateEarning(ctx, e); err != nil {
		return nil, err
	}

	s.logger.Info("earning recorded",
		zap.Int64("owner_id", e.OwnerID),
		zap.Int64("earning_id", e.ID),
		zap.String("amount", e.Amount.String()),
	)
	return e, nil
}

func (s *RecordsService) UpdateEarning(ctx context.Context, e *domain.Earning) (*domain.Earning, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.UpdateEarning")
	defer span.End()

	if err := e.Validate(); err != nil {
		return nil, err
	}
	if err := s.earnings.UpdateEarning(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *RecordsService) GetEarning(ctx context.Context, ownerID, earningID int64) (*domain.Earning, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.GetEarning")
	defer span.End()

	return s.earnings.GetEarning(ctx, ownerID, earningID)
}

func (s *RecordsService) ListEarnings(ctx context.Context, ownerID int64, f domain.EarningFilter) ([]domain.Earning, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.ListEarnings")
	defer span.End()

	return s.earnings.ListEarnings(ctx, ownerID, f)
}

func (s *RecordsService) DeleteEarning(ctx context.Context, ownerID, earningID int64) error {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.DeleteEarning")
	defer span.End()

	return s.earnings.DeleteEarning(ctx, ownerID, earningID)
}

// ============================================================
// Investments
// ============================================================

func (s *RecordsService) CreateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.CreateInvestment")
	defer span.End()

	if err := i.Validate(); err != nil {
		return nil, err
	}
	i.ID = 0
	if err := s.investments.CreateInvestment(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *RecordsService) UpdateInvestment(ctx context.Context, i *domain.Investment) (*domain.Investment, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.UpdateInvestment")
	defer span.End()

	if err := i.Validate(); err != nil {
		return nil, err
	}
	if err := s.investments.UpdateInvestment(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *RecordsService) GetInvestment(ctx context.Context, ownerID, investmentID int64) (*domain.Investment, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.GetInvestment")
	defer span.End()

	return s.investments.GetInvestment(ctx, ownerID, investmentID)
}

// InvestmentSummary lists the owner's investments with their total.
func (s *RecordsService) InvestmentSummary(ctx context.Context, ownerID int64) (*domain.InvestmentSummary, error) {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.InvestmentSummary")
	defer span.End()

	items, err := s.investments.ListInvestments(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	summary := domain.SummarizeInvestments(items)
	return &summary, nil
}

func (s *RecordsService) DeleteInvestment(ctx context.Context, ownerID, investmentID int64) error {
	ctx, span := recordsTracer.Start(ctx, "RecordsService.DeleteInvestment")
	defer span.End()

	return s.investments.DeleteInvestment(ctx, ownerID, investmentID)
}
