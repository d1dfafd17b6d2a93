package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the backend.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrExternalService indicates a failure in an external service call
// (blob store, broker).
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrTimeout indicates an operation exceeded its deadline.
type ErrTimeout struct {
	Operation string
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("operation timed out: %s", e.Operation)
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// OverBudgetScope tells which write tripped the allocation check.
type OverBudgetScope string

const (
	OverBudgetExpense OverBudgetScope = "expense"
	OverBudgetBudget  OverBudgetScope = "budget"
)

// ErrOverBudget is returned when a write would leave a budget with more
// spent than allocated. For expense writes Attempted is the expense amount
// and Remaining is what the other expenses leave of the allocation. For
// budget writes Attempted is the spent total and Remaining the allocation.
type ErrOverBudget struct {
	Scope     OverBudgetScope
	BudgetID  int64
	Category  string
	Attempted decimal.Decimal
	Remaining decimal.Decimal
}

func (e *ErrOverBudget) Error() string {
	if e.Scope == OverBudgetBudget {
		return fmt.Sprintf("spent amount (%s) cannot exceed allocated amount (%s)",
			e.Attempted.StringFixed(2), e.Remaining.StringFixed(2))
	}
	return fmt.Sprintf("expense amount (%s) exceeds remaining budget (%s) for %s",
		e.Attempted.StringFixed(2), e.Remaining.StringFixed(2), e.Category)
}

// ErrForbidden indicates the caller lacks permission for the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a uniqueness violation (invoice number, username).
type ErrConflict struct {
	Field   string
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}
