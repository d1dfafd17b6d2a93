package domain

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places stored for every amount.
const MoneyScale = 2

// maxMoney bounds amounts to what a DECIMAL(12,2) column holds.
var maxMoney = decimal.New(1, 10)

// MaxVATRate is the highest VAT percentage an invoice may carry.
var MaxVATRate = decimal.NewFromInt(100)

// checkMoney rejects amounts with more than two decimal places or too large
// to store.
func checkMoney(field string, d decimal.Decimal) error {
	if d.Exponent() < -MoneyScale && !d.Equal(d.Round(MoneyScale)) {
		return &ErrValidation{Field: field, Message: field + " must have at most 2 decimal places"}
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return &ErrValidation{Field: field, Message: field + " is too large"}
	}
	return nil
}

// RoundMoney rounds a derived amount to the stored scale.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
