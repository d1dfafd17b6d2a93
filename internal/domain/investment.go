package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Investment is money placed in an asset class.
type Investment struct {
	ID      int64           `json:"id"`
	OwnerID int64           `json:"-"`
	Type    string          `json:"type"`
	Amount  decimal.Decimal `json:"amount"`
}

func (i *Investment) Validate() error {
	if strings.TrimSpace(i.Type) == "" {
		return &ErrValidation{Field: "type", Message: "type is required"}
	}
	if !i.Amount.IsPositive() {
		return &ErrValidation{Field: "amount", Message: "amount must be greater than zero"}
	}
	if err := checkMoney("amount", i.Amount); err != nil {
		return err
	}
	return nil
}

// InvestmentSummary is the list view of investments.
type InvestmentSummary struct {
	Total     decimal.Decimal `json:"total"`
	Breakdown []Investment    `json:"breakdown"`
}

// SummarizeInvestments totals a set of investments.
func SummarizeInvestments(items []Investment) InvestmentSummary {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	if items == nil {
		items = []Investment{}
	}
	return InvestmentSummary{Total: total, Breakdown: items}
}
