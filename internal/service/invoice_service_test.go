package service_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/cache"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/lock"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/port"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

// conflictingStore fails the first `failures` inserts with a duplicate
// invoice number.
type conflictingStore struct {
	*memory.Store
	failures int
	calls    int
}

func (s *conflictingStore) CreateInvoice(ctx context.Context, inv *domain.Invoice) error {
	s.calls++
	if s.calls <= s.failures {
		return &domain.ErrConflict{Field: "invoice_number", Message: "duplicate"}
	}
	return s.Store.CreateInvoice(ctx, inv)
}

type stubRenderer struct{}

func (stubRenderer) RenderInvoicePDF(w io.Writer, inv *domain.Invoice) error {
	_, err := fmt.Fprintf(w, "%%PDF-1.3 %s", inv.InvoiceNumber)
	return err
}

func newInvoiceService(store port.InvoiceStore, metrics *observability.Metrics) *service.InvoiceService {
	names := cache.New[[]string](time.Minute)
	return service.NewInvoiceService(store, lock.NewLocal(), stubRenderer{}, names, nil, metrics, zap.NewNop())
}

func invoiceFor(client string) *domain.Invoice {
	return &domain.Invoice{
		OwnerID:    owner,
		ClientName: client,
		Date:       domain.NewDate(time.Now()),
		VATRate:    dec("10"),
		Items: []domain.InvoiceItem{
			{Description: "Design", Quantity: dec("4"), UnitPrice: dec("2000")},
			{Description: "Print", Quantity: dec("3"), UnitPrice: dec("1000")},
		},
	}
}

// --- Tests ---

func TestInvoiceCreate_NumbersAndTotals(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	year := time.Now().Year()

	in := invoiceFor("Acme")
	in.InvoiceNumber = "CLIENT-SENT"
	in.TotalAmount = dec("1")

	inv, err := svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ACM.%d.001", year), inv.InvoiceNumber)
	assert.True(t, inv.TotalAmount.Equal(dec("12100")), "total %s", inv.TotalAmount)
}

func TestInvoiceCreate_SequencePerClientCaseInsensitive(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	year := time.Now().Year()

	for _, name := range []string{"Acme", "ACME", "acme"} {
		_, err := svc.Create(context.Background(), invoiceFor(name))
		require.NoError(t, err)
	}
	inv, err := svc.Create(context.Background(), invoiceFor("Acme"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ACM.%d.004", year), inv.InvoiceNumber)
}

func TestInvoiceCreate_WidensPrefixOnSharedLetters(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	year := time.Now().Year()

	_, err := svc.Create(context.Background(), invoiceFor("Bridge Deal"))
	require.NoError(t, err)

	inv, err := svc.Create(context.Background(), invoiceFor("Bridge Design"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("BRID.%d.001", year), inv.InvoiceNumber)
}

func TestInvoiceCreate_NumberingSpansOwners(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	year := time.Now().Year()

	other := invoiceFor("Acme")
	other.OwnerID = owner + 1
	_, err := svc.Create(context.Background(), other)
	require.NoError(t, err)

	inv, err := svc.Create(context.Background(), invoiceFor("Acme"))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("ACM.%d.002", year), inv.InvoiceNumber)
}

func TestInvoiceCreate_RetriesOnceOnConflict(t *testing.T) {
	store := &conflictingStore{Store: memory.New(), failures: 1}
	metrics := observability.NewMetrics()
	svc := newInvoiceService(store, metrics)

	inv, err := svc.Create(context.Background(), invoiceFor("Globex"))
	require.NoError(t, err)
	assert.NotZero(t, inv.ID)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, int64(1), metrics.LedgerSnapshot().NumberingConflicts)
}

func TestInvoiceCreate_SurfacesSecondConflict(t *testing.T) {
	store := &conflictingStore{Store: memory.New(), failures: 2}
	svc := newInvoiceService(store, observability.NewMetrics())

	_, err := svc.Create(context.Background(), invoiceFor("Globex"))
	var conflict *domain.ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "invoice_number", conflict.Field)
	assert.Equal(t, 2, store.calls)
}

func TestInvoiceCreate_ConcurrentSameClientGetsDistinctNumbers(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())

	const n = 10
	numbers := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inv, err := svc.Create(context.Background(), invoiceFor("Initech"))
			if assert.NoError(t, err) {
				numbers <- inv.InvoiceNumber
			}
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[string]bool{}
	for num := range numbers {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestInvoiceCreate_Validation(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())

	in := invoiceFor("Acme")
	in.Items[0].Quantity = dec("0")

	_, err := svc.Create(context.Background(), in)
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "items", ve.Field)
}

func TestInvoiceUpdate_NumberImmutableTotalsRecomputed(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	created, err := svc.Create(context.Background(), invoiceFor("Acme"))
	require.NoError(t, err)
	number := created.InvoiceNumber

	edit := invoiceFor("Acme")
	edit.ID = created.ID
	edit.InvoiceNumber = "ACM.1999.999"
	_, err = svc.Update(context.Background(), edit)
	var ve *domain.ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "invoice_number", ve.Field)

	edit.InvoiceNumber = ""
	edit.VATRate = dec("0")
	updated, err := svc.Update(context.Background(), edit)
	require.NoError(t, err)
	assert.Equal(t, number, updated.InvoiceNumber)
	assert.True(t, updated.TotalAmount.Equal(dec("11000")))
}

func TestInvoiceClientNamesAndDetails(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())

	first := invoiceFor("Acme")
	first.ClientEmail = "old@acme.test"
	_, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	names, err := svc.ClientNames(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names)

	second := invoiceFor("Acme")
	second.ClientEmail = "new@acme.test"
	_, err = svc.Create(context.Background(), second)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), invoiceFor("Globex"))
	require.NoError(t, err)

	names, err = svc.ClientNames(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "Globex"}, names)

	details, err := svc.ClientDetails(context.Background(), owner, "ACME")
	require.NoError(t, err)
	assert.Equal(t, "new@acme.test", details.ClientEmail)

	_, err = svc.ClientDetails(context.Background(), owner, "Nobody")
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestInvoiceRenderPDF(t *testing.T) {
	svc := newInvoiceService(memory.New(), observability.NewMetrics())
	inv, err := svc.Create(context.Background(), invoiceFor("Acme"))
	require.NoError(t, err)

	got, pdf, err := svc.RenderPDF(context.Background(), owner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.Contains(t, string(pdf), "%PDF")

	_, _, err = svc.RenderPDF(context.Background(), owner+1, inv.ID)
	var nf *domain.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}
