// Package memory provides an in-process implementation of port.Store.
// Used for local development (STORE_BACKEND=memory) and tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"
)

var _ port.Store = (*Store)(nil)

// Store keeps every table in maps guarded by one RWMutex. Ledger
// transactions hold the write lock for their whole duration and work on a
// copy of the budget and expense tables, so a failed transaction leaves
// nothing behind.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	budgets     map[int64]domain.Budget
	expenses    map[int64]domain.Expense
	invoices    map[int64]domain.Invoice
	earnings    map[int64]domain.Earning
	investments map[int64]domain.Investment
	documents   map[int64]domain.Document
	profiles    map[int64]domain.Profile
	users       map[int64]domain.User
	tokens      map[string]domain.RefreshToken
}

// New creates an empty store.
func New() *Store {
	return &Store{
		now:         time.Now,
		budgets:     make(map[int64]domain.Budget),
		expenses:    make(map[int64]domain.Expense),
		invoices:    make(map[int64]domain.Invoice),
		earnings:    make(map[int64]domain.Earning),
		investments: make(map[int64]domain.Investment),
		documents:   make(map[int64]domain.Document),
		profiles:    make(map[int64]domain.Profile),
		users:       make(map[int64]domain.User),
		tokens:      make(map[string]domain.RefreshToken),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func notFound(resource string, id int64) error {
	return &domain.ErrNotFound{Resource: resource, ID: strconv.FormatInt(id, 10)}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// ============================================================
// Ledger
// ============================================================

type ledgerTx struct {
	s        *Store
	budgets  map[int64]domain.Budget
	expenses map[int64]domain.Expense
}

// RunInTx runs fn against copies of the ledger tables and swaps them in
// when fn succeeds.
func (s *Store) RunInTx(ctx context.Context, fn func(tx port.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &ledgerTx{
		s:        s,
		budgets:  make(map[int64]domain.Budget, len(s.budgets)),
		expenses: make(map[int64]domain.Expense, len(s.expenses)),
	}
	for k, v := range s.budgets {
		tx.budgets[k] = v
	}
	for k, v := range s.expenses {
		tx.expenses[k] = v
	}

	if err := fn(tx); err != nil {
		return err
	}

	s.budgets = tx.budgets
	s.expenses = tx.expenses
	return nil
}

func (tx *ledgerTx) GetBudgetForUpdate(_ context.Context, ownerID, budgetID int64) (*domain.Budget, error) {
	b, ok := tx.budgets[budgetID]
	if !ok || b.OwnerID != ownerID {
		return nil, notFound("budget", budgetID)
	}
	return &b, nil
}

func (tx *ledgerTx) CreateBudget(_ context.Context, b *domain.Budget) error {
	now := tx.s.now()
	b.ID = tx.s.id()
	b.CreatedAt, b.UpdatedAt = now, now
	tx.budgets[b.ID] = *b
	return nil
}

func (tx *ledgerTx) UpdateBudget(_ context.Context, b *domain.Budget) error {
	cur, ok := tx.budgets[b.ID]
	if !ok || cur.OwnerID != b.OwnerID {
		return notFound("budget", b.ID)
	}
	cur.Category = b.Category
	cur.Allocated = b.Allocated
	cur.Spent = b.Spent
	cur.UpdatedAt = tx.s.now()
	tx.budgets[b.ID] = cur
	*b = cur
	return nil
}

func (tx *ledgerTx) DeleteBudget(_ context.Context, ownerID, budgetID int64) error {
	b, ok := tx.budgets[budgetID]
	if !ok || b.OwnerID != ownerID {
		return notFound("budget", budgetID)
	}
	delete(tx.budgets, budgetID)
	for id, e := range tx.expenses {
		if e.BudgetID == budgetID {
			delete(tx.expenses, id)
		}
	}
	return nil
}

func (tx *ledgerTx) GetExpenseForUpdate(_ context.Context, ownerID, expenseID int64) (*domain.Expense, error) {
	e, ok := tx.expenses[expenseID]
	if !ok || e.OwnerID != ownerID {
		return nil, notFound("expense", expenseID)
	}
	return &e, nil
}

func (tx *ledgerTx) ListExpensesByBudget(_ context.Context, budgetID int64) ([]domain.Expense, error) {
	out := make([]domain.Expense, 0)
	for _, e := range tx.expenses {
		if e.BudgetID == budgetID {
			out = append(out, e)
		}
	}
	sortExpenses(out)
	return out, nil
}

func (tx *ledgerTx) SaveExpense(_ context.Context, e *domain.Expense) error {
	if e.ID == 0 {
		e.ID = tx.s.id()
		e.CreatedAt = tx.s.now()
	} else {
		cur, ok := tx.expenses[e.ID]
		if !ok || cur.OwnerID != e.OwnerID {
			return notFound("expense", e.ID)
		}
		e.CreatedAt = cur.CreatedAt
	}
	tx.expenses[e.ID] = *e
	return nil
}

func (tx *ledgerTx) DeleteExpense(_ context.Context, ownerID, expenseID int64) error {
	e, ok := tx.expenses[expenseID]
	if !ok || e.OwnerID != ownerID {
		return notFound("expense", expenseID)
	}
	delete(tx.expenses, expenseID)
	return nil
}

func (s *Store) GetBudget(_ context.Context, ownerID, budgetID int64) (*domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.budgets[budgetID]
	if !ok || b.OwnerID != ownerID {
		return nil, notFound("budget", budgetID)
	}
	return &b, nil
}

func (s *Store) ListBudgets(_ context.Context, ownerID int64, f domain.BudgetFilter) ([]domain.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Budget, 0)
	for _, b := range s.budgets {
		if b.OwnerID != ownerID {
			continue
		}
		if f.Category != "" && !strings.EqualFold(b.Category, f.Category) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, ownerID, expenseID int64) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses[expenseID]
	if !ok || e.OwnerID != ownerID {
		return nil, notFound("expense", expenseID)
	}
	return &e, nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID int64, f domain.ExpenseFilter) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Expense, 0)
	for _, e := range s.expenses {
		if e.OwnerID != ownerID {
			continue
		}
		if f.BudgetID != 0 && e.BudgetID != f.BudgetID {
			continue
		}
		if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
			continue
		}
		if !f.Range.Contains(e.Date) {
			continue
		}
		out = append(out, e)
	}
	sortExpenses(out)
	return out, nil
}

// sortExpenses orders newest first, then by id.
func sortExpenses(es []domain.Expense) {
	sort.Slice(es, func(i, j int) bool {
		if !es[i].Date.Equal(es[j].Date.Time) {
			return es[i].Date.After(es[j].Date.Time)
		}
		return es[i].ID < es[j].ID
	})
}

// ============================================================
// Invoices
// ============================================================

func (s *Store) numberTaken(number string, exceptID int64) bool {
	for _, inv := range s.invoices {
		if inv.ID != exceptID && inv.InvoiceNumber == number {
			return true
		}
	}
	return false
}

func duplicateNumber(number string) error {
	return &domain.ErrConflict{Field: "invoice_number", Message: "invoice number already exists: " + number}
}

func (s *Store) CreateInvoice(_ context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.numberTaken(inv.InvoiceNumber, 0) {
		return duplicateNumber(inv.InvoiceNumber)
	}
	inv.ID = s.id()
	inv.CreatedAt = s.now()
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *domain.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.invoices[inv.ID]
	if !ok || cur.OwnerID != inv.OwnerID {
		return notFound("invoice", inv.ID)
	}
	if s.numberTaken(inv.InvoiceNumber, inv.ID) {
		return duplicateNumber(inv.InvoiceNumber)
	}
	inv.CreatedAt = cur.CreatedAt
	s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, ownerID, invoiceID int64) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[invoiceID]
	if !ok || inv.OwnerID != ownerID {
		return nil, notFound("invoice", invoiceID)
	}
	out := cloneInvoice(inv)
	return &out, nil
}

func (s *Store) ListInvoices(_ context.Context, ownerID int64, f domain.InvoiceFilter) ([]domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Invoice, 0)
	for _, inv := range s.invoices {
		if inv.OwnerID != ownerID {
			continue
		}
		if f.ClientName != "" && !strings.EqualFold(inv.ClientName, f.ClientName) {
			continue
		}
		if !f.Range.Contains(inv.Date) {
			continue
		}
		out = append(out, cloneInvoice(inv))
	}
	sortInvoices(out)
	return out, nil
}

func (s *Store) DeleteInvoice(_ context.Context, ownerID, invoiceID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[invoiceID]
	if !ok || inv.OwnerID != ownerID {
		return notFound("invoice", invoiceID)
	}
	delete(s.invoices, invoiceID)
	return nil
}

func (s *Store) CountInvoicesByClient(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, inv := range s.invoices {
		if strings.EqualFold(inv.ClientName, name) {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListAllClientNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clientNames(func(domain.Invoice) bool { return true }), nil
}

func (s *Store) ListClientNames(_ context.Context, ownerID int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.clientNames(func(inv domain.Invoice) bool { return inv.OwnerID == ownerID }), nil
}

func (s *Store) clientNames(keep func(domain.Invoice) bool) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, inv := range s.invoices {
		if !keep(inv) {
			continue
		}
		if _, ok := seen[inv.ClientName]; ok {
			continue
		}
		seen[inv.ClientName] = struct{}{}
		out = append(out, inv.ClientName)
	}
	sort.Strings(out)
	return out
}

func (s *Store) LatestInvoiceForClient(_ context.Context, ownerID int64, name string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *domain.Invoice
	for _, inv := range s.invoices {
		if inv.OwnerID != ownerID || !strings.EqualFold(inv.ClientName, name) {
			continue
		}
		if latest == nil || inv.CreatedAt.After(latest.CreatedAt) ||
			(inv.CreatedAt.Equal(latest.CreatedAt) && inv.ID > latest.ID) {
			c := cloneInvoice(inv)
			latest = &c
		}
	}
	if latest == nil {
		return nil, &domain.ErrNotFound{Resource: "client", ID: name}
	}
	return latest, nil
}

func cloneInvoice(inv domain.Invoice) domain.Invoice {
	inv.Items = append([]domain.InvoiceItem(nil), inv.Items...)
	return inv
}

// sortInvoices orders newest first.
func sortInvoices(invs []domain.Invoice) {
	sort.Slice(invs, func(i, j int) bool {
		if !invs[i].Date.Equal(invs[j].Date.Time) {
			return invs[i].Date.After(invs[j].Date.Time)
		}
		return invs[i].ID > invs[j].ID
	})
}
