package domain

import "time"

// Domain event types published after a committed write.
const (
	EventExpenseSaved     = "expense.saved"
	EventExpenseDeleted   = "expense.deleted"
	EventBudgetRecomputed = "budget.recomputed"
	EventInvoiceCreated   = "invoice.created"
)

// Event is a notification about a committed change.
type Event struct {
	Type       string    `json:"type"`
	OwnerID    int64     `json:"owner_id"`
	EntityID   int64     `json:"entity_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
