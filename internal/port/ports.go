// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"io"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
)

// Store is everything the services persist. Implemented by the MySQL
// adapter and by the in-memory adapter.
type Store interface {
	LedgerStore
	InvoiceStore
	EarningStore
	InvestmentStore
	DocumentStore
	ProfileStore
	AuthStore
	Ping(ctx context.Context) error
}

// LedgerStore holds budgets and their expenses. Writes that touch a budget's
// spent total go through RunInTx.
type LedgerStore interface {
	// RunInTx runs fn in one storage transaction. fn's error rolls back.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error

	GetBudget(ctx context.Context, ownerID, budgetID int64) (*domain.Budget, error)
	ListBudgets(ctx context.Context, ownerID int64, f domain.BudgetFilter) ([]domain.Budget, error)
	GetExpense(ctx context.Context, ownerID, expenseID int64) (*domain.Expense, error)
	ListExpenses(ctx context.Context, ownerID int64, f domain.ExpenseFilter) ([]domain.Expense, error)
}

// LedgerTx is the transactional view of the ledger. Lookups return
// *domain.ErrNotFound when the row is missing or belongs to another owner.
type LedgerTx interface {
	// GetBudgetForUpdate reads and row-locks a budget until the
	// transaction ends.
	GetBudgetForUpdate(ctx context.Context, ownerID, budgetID int64) (*domain.Budget, error)
	CreateBudget(ctx context.Context, b *domain.Budget) error
	// UpdateBudget writes category, allocated and spent.
	UpdateBudget(ctx context.Context, b *domain.Budget) error
	// DeleteBudget removes the budget and its expenses.
	DeleteBudget(ctx context.Context, ownerID, budgetID int64) error

	GetExpenseForUpdate(ctx context.Context, ownerID, expenseID int64) (*domain.Expense, error)
	ListExpensesByBudget(ctx context.Context, budgetID int64) ([]domain.Expense, error)
	// SaveExpense inserts when e.ID is zero and updates otherwise.
	SaveExpense(ctx context.Context, e *domain.Expense) error
	DeleteExpense(ctx context.Context, ownerID, expenseID int64) error
}

// InvoiceStore persists invoices. CreateInvoice and UpdateInvoice return
// *domain.ErrConflict with Field "invoice_number" on a duplicate number.
type InvoiceStore interface {
	CreateInvoice(ctx context.Context, inv *domain.Invoice) error
	UpdateInvoice(ctx context.Context, inv *domain.Invoice) error
	GetInvoice(ctx context.Context, ownerID, invoiceID int64) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, ownerID int64, f domain.InvoiceFilter) ([]domain.Invoice, error)
	DeleteInvoice(ctx context.Context, ownerID, invoiceID int64) error

	// CountInvoicesByClient counts invoices of every owner whose client
	// name equals name case-insensitively.
	CountInvoicesByClient(ctx context.Context, name string) (int, error)
	// ListAllClientNames returns the distinct client names across owners.
	ListAllClientNames(ctx context.Context) ([]string, error)
	// ListClientNames returns the distinct client names of one owner.
	ListClientNames(ctx context.Context, ownerID int64) ([]string, error)
	// LatestInvoiceForClient returns the owner's newest invoice for the
	// client, or *domain.ErrNotFound.
	LatestInvoiceForClient(ctx context.Context, ownerID int64, name string) (*domain.Invoice, error)
}

// EarningStore persists earnings.
type EarningStore interface {
	CreateEarning(ctx context.Context, e *domain.Earning) error
	UpdateEarning(ctx context.Context, e *domain.Earning) error
	GetEarning(ctx context.Context, ownerID, earningID int64) (*domain.Earning, error)
	ListEarnings(ctx context.Context, ownerID int64, f domain.EarningFilter) ([]domain.Earning, error)
	DeleteEarning(ctx context.Context, ownerID, earningID int64) error
}

// InvestmentStore persists investments.
type InvestmentStore interface {
	CreateInvestment(ctx context.Context, i *domain.Investment) error
	UpdateInvestment(ctx context.Context, i *domain.Investment) error
	GetInvestment(ctx context.Context, ownerID, investmentID int64) (*domain.Investment, error)
	ListInvestments(ctx context.Context, ownerID int64) ([]domain.Investment, error)
	DeleteInvestment(ctx context.Context, ownerID, investmentID int64) error
}

// DocumentStore persists document metadata. Content lives in a BlobStore.
type DocumentStore interface {
	CreateDocument(ctx context.Context, d *domain.Document) error
	GetDocument(ctx context.Context, ownerID, documentID int64) (*domain.Document, error)
	ListDocuments(ctx context.Context, ownerID int64) ([]domain.Document, error)
	DeleteDocument(ctx context.Context, ownerID, documentID int64) error
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, ownerID int64) (*domain.Profile, error)
	SaveProfile(ctx context.Context, p *domain.Profile) error
}

// AuthStore defines the data operations of the authentication system.
// Lookups return (nil, nil) when nothing matches.
type AuthStore interface {
	// CreateUser inserts the user and its initial profile. A taken
	// username yields *domain.ErrConflict.
	CreateUser(ctx context.Context, u *domain.User, p *domain.Profile) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	// UpdatePassword replaces the stored bcrypt hash of the user.
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error

	StoreRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, userID int64) error
}

// BlobStore keeps uploaded file content.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// Locker serializes work on a key across processes.
type Locker interface {
	// Lock blocks until key is held or ctx ends. The returned func
	// releases it.
	Lock(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// EventPublisher announces committed changes.
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.Event) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// InvoiceRenderer writes a printable invoice.
type InvoiceRenderer interface {
	RenderInvoicePDF(w io.Writer, inv *domain.Invoice) error
}

// ReportRenderer writes the weekly report in its export formats.
type ReportRenderer interface {
	RenderWeeklyXLSX(w io.Writer, r *domain.WeeklyReport) error
	RenderWeeklyPDF(w io.Writer, r *domain.WeeklyReport) error
}
