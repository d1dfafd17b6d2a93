package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Earning is income received for a project.
type Earning struct {
	ID        int64           `json:"id"`
	OwnerID   int64           `json:"-"`
	Project   string          `json:"project"`
	Amount    decimal.Decimal `json:"amount"`
	Date      Date            `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
}

func (e *Earning) Validate() error {
	if strings.TrimSpace(e.Project) == "" {
		return &ErrValidation{Field: "project", Message: "project is required"}
	}
	if !e.Amount.IsPositive() {
		return &ErrValidation{Field: "amount", Message: "amount must be greater than zero"}
	}
	if err := checkMoney("amount", e.Amount); err != nil {
		return err
	}
	if e.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "date is required"}
	}
	return nil
}

// EarningFilter narrows earning list queries.
type EarningFilter struct {
	Project string
	Range   DateRange
}
