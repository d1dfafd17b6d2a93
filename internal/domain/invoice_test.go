package domain_test

import (
	"errors"
	"testing"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	items := []domain.InvoiceItem{
		{Description: "Banner", Quantity: dec("4"), UnitPrice: dec("2000")},
		{Description: "Flyer", Quantity: dec("3"), UnitPrice: dec("1000")},
	}

	got := domain.ComputeTotals(items, dec("10"), false, false, decimal.Zero)

	assert.True(t, got.Subtotal.Equal(dec("11000")), "subtotal %s", got.Subtotal)
	assert.True(t, got.VAT.Equal(dec("1100")), "vat %s", got.VAT)
	assert.True(t, got.Total.Equal(dec("12100")), "total %s", got.Total)
}

func TestComputeTotals_DaysAndAgentFee(t *testing.T) {
	days := dec("3")
	items := []domain.InvoiceItem{
		{Description: "Promoters", Quantity: dec("2"), UnitPrice: dec("100"), Days: &days},
		{Description: "Tent", Quantity: dec("1"), UnitPrice: dec("50")},
	}

	got := domain.ComputeTotals(items, dec("18"), true, true, dec("150"))

	// 2*100*3 + 1*50*1 = 650; +150 fee = 800; VAT 144.
	assert.True(t, got.Subtotal.Equal(dec("650")))
	assert.True(t, got.WithAgent.Equal(dec("800")))
	assert.True(t, got.VAT.Equal(dec("144")))
	assert.True(t, got.Total.Equal(dec("944")))

	// Days and agent fee are ignored when their flags are off.
	plain := domain.ComputeTotals(items, dec("0"), false, false, dec("150"))
	assert.True(t, plain.Total.Equal(dec("250")))
}

func TestInvoiceValidate(t *testing.T) {
	date, _ := domain.ParseDate("2026-01-10")
	base := func() domain.Invoice {
		return domain.Invoice{
			ClientName: "Acme",
			Date:       date,
			VATRate:    dec("18"),
			Items:      []domain.InvoiceItem{{Description: "Ad", Quantity: dec("1"), UnitPrice: dec("0")}},
		}
	}

	ok := base()
	assert.NoError(t, ok.Validate())

	cases := map[string]func(*domain.Invoice){
		"items":            func(i *domain.Invoice) { i.Items = nil },
		"client_name":      func(i *domain.Invoice) { i.ClientName = " " },
		"vat_rate":         func(i *domain.Invoice) { i.VATRate = dec("-1") },
		"signature_choice": func(i *domain.Invoice) { s := "bob"; i.SignatureChoice = &s },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			inv := base()
			mutate(&inv)
			var ve *domain.ErrValidation
			require.True(t, errors.As(inv.Validate(), &ve))
			assert.Equal(t, field, ve.Field)
		})
	}

	zeroQty := base()
	zeroQty.Items[0].Quantity = decimal.Zero
	assert.Error(t, zeroQty.Validate())

	zeroDays := base()
	d := decimal.Zero
	zeroDays.Items[0].Days = &d
	assert.Error(t, zeroDays.Validate())
}

func TestComputeTotals_RoundsToCents(t *testing.T) {
	items := []domain.InvoiceItem{{Description: "Sticker", Quantity: dec("1"), UnitPrice: dec("0.33")}}

	got := domain.ComputeTotals(items, dec("7.5"), false, false, decimal.Zero)

	// 0.33 * 7.5% = 0.02475, stored as 0.02; total 0.35.
	assert.Equal(t, "0.02", got.VAT.StringFixed(2))
	assert.True(t, got.Total.Equal(dec("0.35")), "total %s", got.Total)
	assert.True(t, got.Total.Equal(got.Total.Round(2)))
}

func TestInvoiceValidate_MoneyScale(t *testing.T) {
	date, _ := domain.ParseDate("2026-01-10")
	base := func() domain.Invoice {
		return domain.Invoice{
			ClientName: "Acme",
			Date:       date,
			VATRate:    dec("18"),
			Items:      []domain.InvoiceItem{{Description: "Ad", Quantity: dec("1"), UnitPrice: dec("10.50")}},
		}
	}

	ok := base()
	ok.VATRate = dec("100")
	ok.AgentFee = dec("12.500")
	assert.NoError(t, ok.Validate())

	cases := map[string]func(*domain.Invoice){
		"vat_rate":  func(i *domain.Invoice) { i.VATRate = dec("5000") },
		"agent_fee": func(i *domain.Invoice) { i.AgentFee = dec("1.005") },
		"items":     func(i *domain.Invoice) { i.Items[0].UnitPrice = dec("0.001") },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			inv := base()
			mutate(&inv)
			var ve *domain.ErrValidation
			require.True(t, errors.As(inv.Validate(), &ve))
			assert.Equal(t, field, ve.Field)
		})
	}

	fractional := base()
	fractional.VATRate = dec("7.125")
	assert.Error(t, fractional.Validate())
}
