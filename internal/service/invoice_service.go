package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var invoiceTracer = otel.Tracer("service/invoice")

// numberingAttempts is how many times Create numbers an invoice before a
// duplicate invoice_number is surfaced to the caller.
const numberingAttempts = 2

// InvoiceService issues, edits and renders invoices.
type InvoiceService struct {
	store    port.InvoiceStore
	locker   port.Locker
	renderer port.InvoiceRenderer
	names    port.Cache[[]string]
	events   eventSink
	metrics  *observability.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewInvoiceService creates an invoice service. names caches each owner's
// distinct client names.
func NewInvoiceService(
	store port.InvoiceStore,
	locker port.Locker,
	renderer port.InvoiceRenderer,
	names port.Cache[[]string],
	events port.EventPublisher,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		store:    store,
		locker:   locker,
		renderer: renderer,
		names:    names,
		events:   eventSink{pub: events, metrics: metrics, logger: logger},
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func numberingLockKey(clientName string) string {
	return "invoice-number:" + strings.ToLower(strings.TrimSpace(clientName))
}

func clientNamesKey(ownerID int64) string {
	return "client-names:" + strconv.FormatInt(ownerID, 10)
}

// ============================================================
// Create: POST /v1/invoices
// ============================================================

// Create validates the invoice, computes its total and assigns its number.
// Any invoice_number or total_amount sent by the client is replaced.
func (s *InvoiceService) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Create")
	defer span.End()

	if err := inv.Validate(); err != nil {
		return nil, err
	}
	inv.ID = 0
	inv.TotalAmount = inv.Totals().Total

	var err error
	for attempt := 1; attempt <= numberingAttempts; attempt++ {
		err = s.numberAndCreate(ctx, inv)
		if !isNumberConflict(err) {
			break
		}
		retry := attempt < numberingAttempts
		s.metrics.IncrNumberingConflict(retry)
		s.logger.Warn("invoice number conflict",
			zap.String("client_name", inv.ClientName),
			zap.String("invoice_number", inv.InvoiceNumber),
			zap.Int("attempt", attempt),
			zap.Bool("retrying", retry),
		)
	}
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("invoice.number", inv.InvoiceNumber))
	s.names.Delete(clientNamesKey(inv.OwnerID))
	s.metrics.IncrInvoiceNumbered()
	s.logger.Info("invoice numbered",
		zap.Int64("owner_id", inv.OwnerID),
		zap.Int64("invoice_id", inv.ID),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total", inv.TotalAmount.String()),
	)
	s.events.publish(ctx, domain.EventInvoiceCreated, inv.OwnerID, inv.ID, inv)
	return inv, nil
}

// numberAndCreate holds the client's numbering lock while it reads the
// counts, derives the number and inserts the invoice.
func (s *InvoiceService) numberAndCreate(ctx context.Context, inv *domain.Invoice) error {
	release, err := s.locker.Lock(ctx, numberingLockKey(inv.ClientName))
	if err != nil {
		return fmt.Errorf("lock invoice numbering: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release numbering lock failed", zap.Error(err))
		}
	}()

	count, err := s.store.CountInvoicesByClient(ctx, inv.ClientName)
	if err != nil {
		return fmt.Errorf("count invoices: %w", err)
	}
	all, err := s.store.ListAllClientNames(ctx)
	if err != nil {
		return fmt.Errorf("list client names: %w", err)
	}

	inv.InvoiceNumber = domain.GenerateInvoiceNumber(inv.ClientName, all, count, s.now())
	return s.store.CreateInvoice(ctx, inv)
}

func isNumberConflict(err error) bool {
	var conflict *domain.ErrConflict
	return errors.As(err, &conflict) && conflict.Field == "invoice_number"
}

// ============================================================
// Update: PUT /v1/invoices/{id}
// ============================================================

// Update replaces the editable fields. The number is immutable and the
// total is recomputed.
func (s *InvoiceService) Update(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("invoice.id", inv.ID))

	cur, err := s.store.GetInvoice(ctx, inv.OwnerID, inv.ID)
	if err != nil {
		return nil, err
	}
	if inv.InvoiceNumber != "" && inv.InvoiceNumber != cur.InvoiceNumber {
		return nil, &domain.ErrValidation{Field: "invoice_number", Message: "invoice number cannot be changed"}
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}

	inv.InvoiceNumber = cur.InvoiceNumber
	inv.CreatedAt = cur.CreatedAt
	inv.TotalAmount = inv.Totals().Total

	if err := s.store.UpdateInvoice(ctx, inv); err != nil {
		return nil, err
	}
	s.names.Delete(clientNamesKey(inv.OwnerID))
	return inv, nil
}

// ============================================================
// Reads & delete
// ============================================================

func (s *InvoiceService) Get(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Get")
	defer span.End()

	return s.store.GetInvoice(ctx, ownerID, invoiceID)
}

func (s *InvoiceService) List(ctx context.Context, ownerID int64, f domain.InvoiceFilter) ([]domain.Invoice, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.List")
	defer span.End()

	return s.store.ListInvoices(ctx, ownerID, f)
}

func (s *InvoiceService) Delete(ctx context.Context, ownerID, invoiceID int64) error {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.Delete")
	defer span.End()

	if err := s.store.DeleteInvoice(ctx, ownerID, invoiceID); err != nil {
		return err
	}
	s.names.Delete(clientNamesKey(ownerID))
	return nil
}

// ClientNames returns the distinct client names on the owner's invoices.
func (s *InvoiceService) ClientNames(ctx context.Context, ownerID int64) ([]string, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.ClientNames")
	defer span.End()

	key := clientNamesKey(ownerID)
	if names, ok := s.names.Get(key); ok {
		s.metrics.IncrCacheHit("client_names")
		return names, nil
	}
	s.metrics.IncrCacheMiss("client_names")

	names, err := s.store.ListClientNames(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list client names: %w", err)
	}
	s.names.Set(key, names)
	return names, nil
}

// ClientDetails returns the client block of the owner's latest invoice for
// name, matched case-insensitively.
func (s *InvoiceService) ClientDetails(ctx context.Context, ownerID int64, name string) (*domain.ClientDetails, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.ClientDetails")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "client name is required"}
	}

	inv, err := s.store.LatestInvoiceForClient(ctx, ownerID, name)
	if err != nil {
		return nil, err
	}
	details := domain.ClientDetailsOf(inv)
	return &details, nil
}

// RenderPDF renders one of the owner's invoices.
func (s *InvoiceService) RenderPDF(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, []byte, error) {
	ctx, span := invoiceTracer.Start(ctx, "InvoiceService.RenderPDF")
	defer span.End()

	inv, err := s.store.GetInvoice(ctx, ownerID, invoiceID)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := s.renderer.RenderInvoicePDF(&buf, inv); err != nil {
		return nil, nil, fmt.Errorf("render invoice %d: %w", invoiceID, err)
	}
	return inv, buf.Bytes(), nil
}
