package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/handler"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/cache"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/localfs"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/lock"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/render"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/resilience"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Setup ---

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memory.New()
	renderer := render.New(render.Company{Name: "Test Co"})

	blobs, err := localfs.New(t.TempDir())
	require.NoError(t, err)

	svc := handler.Services{
		Auth:      service.NewAuthService(store, "test-secret", time.Hour, 24*time.Hour, logger),
		Profile:   service.NewProfileService(store, "TZ", logger),
		Ledger:    service.NewLedgerService(store, nil, metrics, logger),
		Records:   service.NewRecordsService(store, store, logger),
		Reports:   service.NewReportService(store, store, renderer, "Test Co", logger),
		Invoices:  service.NewInvoiceService(store, lock.NewLocal(), renderer, cache.New[[]string](time.Minute), nil, metrics, logger),
		Documents: service.NewDocumentService(store, blobs, resilience.NewBulkhead(4), 1<<20, metrics, logger),
		Store:     store,
	}
	return handler.NewRouter(svc, metrics, logger, []string{"http://localhost:3000"})
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// login registers username and returns an access token.
func login(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": username, "password": "secret123", "email": username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": username, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["access"].(string)
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) int64 {
	t.Helper()
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode(t, rec)["id"].(float64))
}

// --- Operational ---

func TestOperationalEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/ping"} {
		rec := do(t, router, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := do(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
}

// --- Auth ---

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodGet, "/v1/budgets", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/budgets", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegister_DuplicateUsernameIsConflict(t *testing.T) {
	router := newTestRouter(t)
	login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "alice", "password": "another1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegister_ValidationFields(t *testing.T) {
	router := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"username": "al", "password": "x",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "min", fields["username"])
	assert.Equal(t, "min", fields["password"])
}

func TestProfile_CreatedOnRegister(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodGet, "/v1/profile", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestChangePassword_RequiresCurrentAndRevokesSessions(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	refresh := decode(t, rec)["refresh"].(string)

	rec = do(t, router, http.MethodPost, "/v1/auth/change-password", "", map[string]string{
		"current_password": "secret123", "new_password": "changed123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/auth/change-password", token, map[string]string{
		"current_password": "nope12345", "new_password": "changed123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/auth/change-password", token, map[string]string{
		"current_password": "secret123", "new_password": "abc",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "new_password")

	rec = do(t, router, http.MethodPost, "/v1/auth/change-password", token, map[string]string{
		"current_password": "secret123", "new_password": "changed123",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/v1/auth/refresh", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"username": "alice", "password": "changed123",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Ledger ---

func TestLedger_OverBudgetExpenseIs422(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	budgetID := createdID(t, do(t, router, http.MethodPost, "/v1/budgets", token, map[string]any{
		"category": "Office", "allocated": "1000",
	}))

	rec := do(t, router, http.MethodPost, "/v1/expenses", token, map[string]any{
		"budget": budgetID, "category": "Office", "amount": "600", "date": "2026-10-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPost, "/v1/expenses", token, map[string]any{
		"budget": budgetID, "category": "Office", "amount": "500", "date": "2026-10-02",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "500", body["attempted"])
	assert.Equal(t, "400", body["remaining"])

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/budgets/%d", budgetID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "600", decode(t, rec)["spent"])
}

func TestLedger_RejectsSubCentAmounts(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	budgetID := createdID(t, do(t, router, http.MethodPost, "/v1/budgets", token, map[string]any{
		"category": "Office", "allocated": "1000",
	}))

	rec := do(t, router, http.MethodPost, "/v1/expenses", token, map[string]any{
		"budget": budgetID, "category": "Office", "amount": "0.004", "date": "2026-10-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/budgets/%d", budgetID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", decode(t, rec)["spent"])
}

func TestLedger_OwnerIsolation(t *testing.T) {
	router := newTestRouter(t)
	alice := login(t, router, "alice")
	bob := login(t, router, "bob")

	budgetID := createdID(t, do(t, router, http.MethodPost, "/v1/budgets", alice, map[string]any{
		"category": "Travel", "allocated": "100",
	}))

	rec := do(t, router, http.MethodGet, fmt.Sprintf("/v1/budgets/%d", budgetID), bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLedger_InvalidPathID(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodGet, "/v1/budgets/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Transactions & reports ---

func TestTransactions_PostRejected(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/transactions", token, map[string]any{"amount": "10"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWeeklyReport_EmptyAndInvalidFormat(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodGet, "/v1/reports/weekly?format=csv", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/v1/reports/weekly", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "No data available for the report", decode(t, rec)["message"])
}

// --- Invoices ---

func TestInvoices_CreateAssignsNumberAndTotal(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/invoices", token, map[string]any{
		"client_name":  "Acme Ltd",
		"date":         "2026-10-01",
		"vat_rate":     "18",
		"total_amount": "1",
		"items": []map[string]any{
			{"description": "Consulting", "quantity": "2", "unit_price": "500"},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, fmt.Sprintf("ACM.%04d.001", time.Now().Year()), body["invoice_number"])
	assert.Equal(t, "1180", body["total_amount"])
	id := int64(body["id"].(float64))

	rec = do(t, router, http.MethodGet, "/v1/invoices/client_names", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Acme Ltd"]`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/v1/invoices/client_details?name=acme%20ltd", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Acme Ltd", decode(t, rec)["client_name"])

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/invoices/%d/pdf", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestInvoices_TotalStoredInCents(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/invoices", token, map[string]any{
		"client_name": "Acme Ltd", "date": "2026-10-01", "vat_rate": "7.5",
		"items": []map[string]any{{"description": "Sticker", "quantity": "1", "unit_price": "0.33"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "0.35", body["total_amount"])

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/invoices/%d", int64(body["id"].(float64))), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.35", decode(t, rec)["total_amount"])

	rec = do(t, router, http.MethodPost, "/v1/invoices", token, map[string]any{
		"client_name": "Acme Ltd", "date": "2026-10-01", "vat_rate": "5000",
		"items": []map[string]any{{"description": "Sticker", "quantity": "1", "unit_price": "1"}},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, decode(t, rec)["fields"], "vat_rate")
}

func TestInvoices_RequireItems(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	rec := do(t, router, http.MethodPost, "/v1/invoices", token, map[string]any{
		"client_name": "Acme Ltd", "date": "2026-10-01",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["fields"], "items")
}

// --- Documents ---

func TestDocuments_UploadDownloadDelete(t *testing.T) {
	router := newTestRouter(t)
	token := login(t, router, "alice")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("title", "Contract"))
	require.NoError(t, mw.WriteField("file_type", "pdf"))
	part, err := mw.CreateFormFile("file", "contract.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 contract"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/documents", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	id := createdID(t, rec)

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/documents/%d/download", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "%PDF-1.4 contract", rec.Body.String())
	assert.True(t, strings.Contains(rec.Header().Get("Content-Disposition"), "contract.pdf"))

	rec = do(t, router, http.MethodDelete, fmt.Sprintf("/v1/documents/%d", id), token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, fmt.Sprintf("/v1/documents/%d", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
