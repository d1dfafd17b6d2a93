package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Invoice
// ============================================================

var hundred = decimal.NewFromInt(100)

// Signature choices accepted on an invoice.
const (
	SignatureElisha = "elisha"
	SignatureGinye  = "ginye"
	SignatureSiza   = "siza"
)

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Days        *decimal.Decimal `json:"days,omitempty"`
}

// Invoice is a client bill. InvoiceNumber is assigned by the server once
// and never changes; TotalAmount is always recomputed from the items.
type Invoice struct {
	ID              int64           `json:"id"`
	OwnerID         int64           `json:"-"`
	ClientName      string          `json:"client_name"`
	ClientLocation  string          `json:"client_location"`
	ClientAddress   string          `json:"client_address"`
	ClientTIN       string          `json:"client_tin"`
	ClientEmail     string          `json:"client_email"`
	Date            Date            `json:"date"`
	Heading         string          `json:"heading"`
	Subtitle        string          `json:"subtitle"`
	Items           []InvoiceItem   `json:"items"`
	VATRate         decimal.Decimal `json:"vat_rate"`
	IncludeDays     bool            `json:"include_days"`
	IncludeAgentFee bool            `json:"include_agent_fee"`
	AgentFee        decimal.Decimal `json:"agent_fee"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	InvoiceNumber   string          `json:"invoice_number"`
	SignatureChoice *string         `json:"signature_choice"`
	CreatedAt       time.Time       `json:"created_at"`
}

// InvoiceTotals breaks down an invoice's amount.
type InvoiceTotals struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	AgentFee  decimal.Decimal `json:"agent_fee"`
	WithAgent decimal.Decimal `json:"with_agent"`
	VAT       decimal.Decimal `json:"vat"`
	Total     decimal.Decimal `json:"total"`
}

// LineTotal is quantity * unit price, multiplied by days when the invoice
// bills per day. A missing days value counts as one day.
func (it InvoiceItem) LineTotal(includeDays bool) decimal.Decimal {
	total := it.Quantity.Mul(it.UnitPrice)
	if includeDays {
		total = total.Mul(it.DaysOrOne())
	}
	return total
}

// DaysOrOne returns the item's days, defaulting to one.
func (it InvoiceItem) DaysOrOne() decimal.Decimal {
	if it.Days == nil {
		return decimal.NewFromInt(1)
	}
	return *it.Days
}

// ComputeTotals derives the invoice amounts from its items. VAT and Total
// are rounded to cents so every caller sees the stored figure.
func ComputeTotals(items []InvoiceItem, vatRate decimal.Decimal, includeDays, includeAgentFee bool, agentFee decimal.Decimal) InvoiceTotals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal(includeDays))
	}

	fee := decimal.Zero
	if includeAgentFee {
		fee = agentFee
	}
	withAgent := subtotal.Add(fee)
	vat := RoundMoney(withAgent.Mul(vatRate).Div(hundred))

	return InvoiceTotals{
		Subtotal:  subtotal,
		AgentFee:  fee,
		WithAgent: withAgent,
		VAT:       vat,
		Total:     RoundMoney(withAgent.Add(vat)),
	}
}

// Totals computes the invoice's breakdown from its current fields.
func (inv *Invoice) Totals() InvoiceTotals {
	return ComputeTotals(inv.Items, inv.VATRate, inv.IncludeDays, inv.IncludeAgentFee, inv.AgentFee)
}

// Validate checks the client-writable fields of an invoice.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.ClientName) == "" {
		return &ErrValidation{Field: "client_name", Message: "client name is required"}
	}
	if inv.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "date is required"}
	}
	if inv.VATRate.IsNegative() {
		return &ErrValidation{Field: "vat_rate", Message: "VAT rate must be zero or greater"}
	}
	if inv.VATRate.GreaterThan(MaxVATRate) {
		return &ErrValidation{Field: "vat_rate", Message: "VAT rate cannot exceed 100"}
	}
	if err := checkMoney("vat_rate", inv.VATRate); err != nil {
		return err
	}
	if inv.AgentFee.IsNegative() {
		return &ErrValidation{Field: "agent_fee", Message: "agent fee must be zero or greater"}
	}
	if err := checkMoney("agent_fee", inv.AgentFee); err != nil {
		return err
	}
	if len(inv.Items) == 0 {
		return &ErrValidation{Field: "items", Message: "at least one item is required"}
	}

	one := decimal.NewFromInt(1)
	for _, it := range inv.Items {
		if strings.TrimSpace(it.Description) == "" {
			return &ErrValidation{Field: "items", Message: "each item must have a description"}
		}
		if it.Quantity.LessThan(one) {
			return &ErrValidation{Field: "items", Message: "quantity must be at least 1"}
		}
		if it.UnitPrice.IsNegative() {
			return &ErrValidation{Field: "items", Message: "unit price must be zero or greater"}
		}
		if checkMoney("items", it.UnitPrice) != nil {
			return &ErrValidation{Field: "items", Message: "unit price must have at most 2 decimal places"}
		}
		if it.Days != nil && it.Days.LessThan(one) {
			return &ErrValidation{Field: "items", Message: "days must be at least 1"}
		}
	}

	if inv.SignatureChoice != nil {
		switch *inv.SignatureChoice {
		case SignatureElisha, SignatureGinye, SignatureSiza:
		default:
			return &ErrValidation{Field: "signature_choice", Message: "must be one of elisha, ginye, siza"}
		}
	}
	return nil
}

// ClientDetails is the client block of the most recent invoice for a
// client, used to prefill new invoices.
type ClientDetails struct {
	ClientName     string `json:"client_name"`
	ClientLocation string `json:"client_location"`
	ClientAddress  string `json:"client_address"`
	ClientTIN      string `json:"client_tin"`
	ClientEmail    string `json:"client_email"`
}

// ClientDetailsOf extracts the client block from an invoice.
func ClientDetailsOf(inv *Invoice) ClientDetails {
	return ClientDetails{
		ClientName:     inv.ClientName,
		ClientLocation: inv.ClientLocation,
		ClientAddress:  inv.ClientAddress,
		ClientTIN:      inv.ClientTIN,
		ClientEmail:    inv.ClientEmail,
	}
}

// InvoiceFilter narrows invoice list queries. ClientName matches
// case-insensitively.
type InvoiceFilter struct {
	ClientName string
	Range      DateRange
}
