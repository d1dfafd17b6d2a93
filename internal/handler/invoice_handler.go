package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Invoices: /v1/invoices
// ============================================================

// invoiceRequest carries the client-writable invoice fields. The number and
// total are assigned by the server and ignored when sent.
type invoiceRequest struct {
	ClientName      string               `json:"client_name" validate:"required,max=255"`
	ClientLocation  string               `json:"client_location" validate:"max=255"`
	ClientAddress   string               `json:"client_address"`
	ClientTIN       string               `json:"client_tin" validate:"max=50"`
	ClientEmail     string               `json:"client_email" validate:"omitempty,email"`
	Date            domain.Date          `json:"date"`
	Heading         string               `json:"heading" validate:"max=255"`
	Subtitle        string               `json:"subtitle" validate:"max=255"`
	Items           []domain.InvoiceItem `json:"items" validate:"required,min=1"`
	VATRate         decimal.Decimal      `json:"vat_rate"`
	IncludeDays     bool                 `json:"include_days"`
	IncludeAgentFee bool                 `json:"include_agent_fee"`
	AgentFee        decimal.Decimal      `json:"agent_fee"`
	SignatureChoice *string              `json:"signature_choice"`
}

func (req *invoiceRequest) toDomain(ownerID, id int64) *domain.Invoice {
	return &domain.Invoice{
		ID:              id,
		OwnerID:         ownerID,
		ClientName:      strings.TrimSpace(req.ClientName),
		ClientLocation:  req.ClientLocation,
		ClientAddress:   req.ClientAddress,
		ClientTIN:       req.ClientTIN,
		ClientEmail:     req.ClientEmail,
		Date:            req.Date,
		Heading:         req.Heading,
		Subtitle:        req.Subtitle,
		Items:           req.Items,
		VATRate:         req.VATRate,
		IncludeDays:     req.IncludeDays,
		IncludeAgentFee: req.IncludeAgentFee,
		AgentFee:        req.AgentFee,
		SignatureChoice: req.SignatureChoice,
	}
}

func listInvoicesHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices")
		defer span.End()

		rng, err := dateRange(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		invoices, err := svc.List(ctx, OwnerIDFromContext(ctx), domain.InvoiceFilter{
			ClientName: r.URL.Query().Get("client_name"),
			Range:      rng,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, domain.ListResponse[domain.Invoice]{Data: invoices, Total: len(invoices)})
	}
}

func createInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/invoices")
		defer span.End()

		var req invoiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		inv, err := svc.Create(ctx, req.toDomain(OwnerIDFromContext(ctx), 0))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("invoice.number", inv.InvoiceNumber))

		writeJSON(w, http.StatusCreated, inv)
	}
}

func getInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		inv, err := svc.Get(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func updateInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/invoices/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		var req invoiceRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		inv, err := svc.Update(ctx, req.toDomain(OwnerIDFromContext(ctx), id))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, inv)
	}
}

func deleteInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/invoices/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		if err := svc.Delete(ctx, OwnerIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func clientNamesHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/client_names")
		defer span.End()

		names, err := svc.ClientNames(ctx, OwnerIDFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if names == nil {
			names = []string{}
		}

		writeJSON(w, http.StatusOK, names)
	}
}

// clientDetailsHandler prefills a new invoice from the client's latest one.
func clientDetailsHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/client_details")
		defer span.End()

		name := strings.TrimSpace(r.URL.Query().Get("name"))
		if name == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:  "client name is required",
				Fields: map[string]string{"name": "required"},
			})
			return
		}

		details, err := svc.ClientDetails(ctx, OwnerIDFromContext(ctx), name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, details)
	}
}

func invoicePDFHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/invoices/{id}/pdf")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}

		inv, pdf, err := svc.RenderPDF(ctx, OwnerIDFromContext(ctx), id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="invoice_`+inv.InvoiceNumber+`.pdf"`)
		w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
		w.WriteHeader(http.StatusOK)
		w.Write(pdf)
	}
}
