package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const owner int64 = 1

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Mocks ---

type recordingPublisher struct {
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.Event) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type ledgerFixture struct {
	svc     *service.LedgerService
	store   *memory.Store
	metrics *observability.Metrics
	events  *recordingPublisher
}

func newLedger(t *testing.T) *ledgerFixture {
	t.Helper()
	store := memory.New()
	metrics := observability.NewMetrics()
	events := &recordingPublisher{}
	return &ledgerFixture{
		svc:     service.NewLedgerService(store, events, metrics, zap.NewNop()),
		store:   store,
		metrics: metrics,
		events:  events,
	}
}

func (f *ledgerFixture) budget(t *testing.T, allocated string) *domain.Budget {
	t.Helper()
	b, err := f.svc.CreateBudget(context.Background(), &domain.Budget{
		OwnerID:   owner,
		Category:  "Marketing",
		Allocated: dec(allocated),
	})
	require.NoError(t, err)
	return b
}

func (f *ledgerFixture) expense(t *testing.T, budgetID int64, amount string) (*domain.Expense, error) {
	t.Helper()
	return f.svc.CreateExpense(context.Background(), &domain.Expense{
		OwnerID:  owner,
		BudgetID: budgetID,
		Category: "Ads",
		Amount:   dec(amount),
		Date:     domain.NewDate(time.Now()),
	})
}

func (f *ledgerFixture) spent(t *testing.T, budgetID int64) decimal.Decimal {
	t.Helper()
	b, err := f.svc.GetBudget(context.Background(), owner, budgetID)
	require.NoError(t, err)
	return b.Spent
}

func (f *ledgerFixture) sumOf(t *testing.T, budgetID int64) decimal.Decimal {
	t.Helper()
	es, err := f.svc.ListExpenses(context.Background(), owner, domain.ExpenseFilter{BudgetID: budgetID})
	require.NoError(t, err)
	return domain.SumExpenses(es)
}

// --- Tests ---

func TestCreateBudget_IgnoresClientSpent(t *testing.T) {
	f := newLedger(t)

	b, err := f.svc.CreateBudget(context.Background(), &domain.Budget{
		OwnerID:   owner,
		Category:  "Travel",
		Allocated: dec("500"),
		Spent:     dec("9999"),
	})
	require.NoError(t, err)
	assert.True(t, b.Spent.IsZero())
}

func TestCreateBudget_Validation(t *testing.T) {
	f := newLedger(t)

	_, err := f.svc.CreateBudget(context.Background(), &domain.Budget{OwnerID: owner, Allocated: dec("10")})
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "category", ve.Field)
}

func TestCreateExpense_WithinAllocation(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "10000")

	_, err := f.expense(t, b.ID, "8000")
	require.NoError(t, err)
	_, err = f.expense(t, b.ID, "1500")
	require.NoError(t, err)

	assert.True(t, f.spent(t, b.ID).Equal(dec("9500")))
}

func TestCreateExpense_OverBudgetLeavesStateUnchanged(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "10000")
	_, err := f.expense(t, b.ID, "8000")
	require.NoError(t, err)

	_, err = f.expense(t, b.ID, "3000")

	var over *domain.ErrOverBudget
	require.ErrorAs(t, err, &over)
	assert.True(t, over.Attempted.Equal(dec("3000")))
	assert.True(t, over.Remaining.Equal(dec("2000")))
	assert.Equal(t, domain.OverBudgetExpense, over.Scope)

	assert.True(t, f.spent(t, b.ID).Equal(dec("8000")))
	es, err := f.svc.ListExpenses(context.Background(), owner, domain.ExpenseFilter{BudgetID: b.ID})
	require.NoError(t, err)
	assert.Len(t, es, 1)

	snap := f.metrics.LedgerSnapshot()
	assert.Equal(t, int64(1), snap.ExpensesAccepted)
	assert.Equal(t, int64(1), snap.ExpensesRejected)
}

func TestCreateExpense_ExactlyAllocated(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "100")

	_, err := f.expense(t, b.ID, "100")
	require.NoError(t, err)
	assert.True(t, f.spent(t, b.ID).Equal(dec("100")))
}

func TestCreateExpense_UnknownBudget(t *testing.T) {
	f := newLedger(t)

	_, err := f.expense(t, 404, "10")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestCreateExpense_OtherOwnersBudget(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "100")

	_, err := f.svc.CreateExpense(context.Background(), &domain.Expense{
		OwnerID:  owner + 1,
		BudgetID: b.ID,
		Category: "Ads",
		Amount:   dec("10"),
		Date:     domain.NewDate(time.Now()),
	})
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
	assert.True(t, f.spent(t, b.ID).IsZero())
}

func TestDeleteExpense_Recomputes(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "10000")

	var middle *domain.Expense
	for _, amount := range []string{"1000", "2000", "3000"} {
		e, err := f.expense(t, b.ID, amount)
		require.NoError(t, err)
		if amount == "2000" {
			middle = e
		}
	}
	require.True(t, f.spent(t, b.ID).Equal(dec("6000")))

	require.NoError(t, f.svc.DeleteExpense(context.Background(), owner, middle.ID))
	assert.True(t, f.spent(t, b.ID).Equal(dec("4000")))
}

func TestDeleteLastExpense_SpentIsZero(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "100")
	e, err := f.expense(t, b.ID, "40")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteExpense(context.Background(), owner, e.ID))
	assert.True(t, f.spent(t, b.ID).IsZero())
}

func TestUpdateExpense_ExcludesItselfFromSiblings(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "1000")
	e, err := f.expense(t, b.ID, "900")
	require.NoError(t, err)

	e.Amount = dec("1000")
	_, err = f.svc.UpdateExpense(context.Background(), e)
	require.NoError(t, err)
	assert.True(t, f.spent(t, b.ID).Equal(dec("1000")))

	e.Amount = dec("1000.01")
	_, err = f.svc.UpdateExpense(context.Background(), e)
	var over *domain.ErrOverBudget
	require.ErrorAs(t, err, &over)
	assert.True(t, over.Remaining.Equal(dec("1000")))
	assert.True(t, f.spent(t, b.ID).Equal(dec("1000")))
}

func TestUpdateExpense_MoveBetweenBudgetsRecomputesBoth(t *testing.T) {
	f := newLedger(t)
	from := f.budget(t, "500")
	to := f.budget(t, "500")
	e, err := f.expense(t, from.ID, "300")
	require.NoError(t, err)

	e.BudgetID = to.ID
	_, err = f.svc.UpdateExpense(context.Background(), e)
	require.NoError(t, err)

	assert.True(t, f.spent(t, from.ID).IsZero())
	assert.True(t, f.spent(t, to.ID).Equal(dec("300")))
}

func TestUpdateBudget_CannotDropBelowSpent(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "1000")
	_, err := f.expense(t, b.ID, "700")
	require.NoError(t, err)

	_, err = f.svc.UpdateBudget(context.Background(), &domain.Budget{
		ID: b.ID, OwnerID: owner, Category: "Marketing", Allocated: dec("600"),
	})
	var over *domain.ErrOverBudget
	require.ErrorAs(t, err, &over)
	assert.Equal(t, domain.OverBudgetBudget, over.Scope)

	got, err := f.svc.GetBudget(context.Background(), owner, b.ID)
	require.NoError(t, err)
	assert.True(t, got.Allocated.Equal(dec("1000")))

	updated, err := f.svc.UpdateBudget(context.Background(), &domain.Budget{
		ID: b.ID, OwnerID: owner, Category: "Brand", Allocated: dec("700"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Brand", updated.Category)
	assert.True(t, updated.Spent.Equal(dec("700")))
}

func TestDeleteBudget_CascadesExpenses(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "1000")
	e, err := f.expense(t, b.ID, "10")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBudget(context.Background(), owner, b.ID))

	_, err = f.svc.GetExpense(context.Background(), owner, e.ID)
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestRecompute_Idempotent(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "1000")
	for _, a := range []string{"10.50", "20.25"} {
		_, err := f.expense(t, b.ID, a)
		require.NoError(t, err)
	}

	first, err := f.svc.Recompute(context.Background(), owner, b.ID)
	require.NoError(t, err)
	second, err := f.svc.Recompute(context.Background(), owner, b.ID)
	require.NoError(t, err)

	assert.True(t, first.Equal(dec("30.75")))
	assert.True(t, first.Equal(second))
}

func TestLedger_SpentTracksExpensesAcrossSequence(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "1000")

	steps := []string{"100", "250", "900", "400", "300"}
	var accepted []*domain.Expense
	for _, amount := range steps {
		e, err := f.expense(t, b.ID, amount)
		if err == nil {
			accepted = append(accepted, e)
		} else {
			var over *domain.ErrOverBudget
			require.True(t, errors.As(err, &over), "unexpected error %v", err)
		}
		spent := f.spent(t, b.ID)
		assert.True(t, spent.Equal(f.sumOf(t, b.ID)), "spent %s after %s", spent, amount)
		assert.True(t, spent.LessThanOrEqual(dec("1000")))
	}

	require.NoError(t, f.svc.DeleteExpense(context.Background(), owner, accepted[0].ID))
	assert.True(t, f.spent(t, b.ID).Equal(f.sumOf(t, b.ID)))
}

func TestLedger_PublishesEventsAfterCommit(t *testing.T) {
	f := newLedger(t)
	b := f.budget(t, "100")

	e, err := f.expense(t, b.ID, "10")
	require.NoError(t, err)
	_, _ = f.expense(t, b.ID, "500")
	require.NoError(t, f.svc.DeleteExpense(context.Background(), owner, e.ID))

	assert.Equal(t, []string{
		domain.EventExpenseSaved,
		domain.EventBudgetRecomputed,
		domain.EventExpenseDeleted,
		domain.EventBudgetRecomputed,
	}, f.events.types())
}

func TestLedger_PublishFailureDoesNotFailWrite(t *testing.T) {
	store := memory.New()
	svc := service.NewLedgerService(store, &recordingPublisher{err: errors.New("broker down")}, observability.NewMetrics(), zap.NewNop())

	b, err := svc.CreateBudget(context.Background(), &domain.Budget{OwnerID: owner, Category: "Ops", Allocated: dec("50")})
	require.NoError(t, err)
	_, err = svc.CreateExpense(context.Background(), &domain.Expense{
		OwnerID: owner, BudgetID: b.ID, Category: "Ops", Amount: dec("5"), Date: domain.NewDate(time.Now()),
	})
	assert.NoError(t, err)
}
