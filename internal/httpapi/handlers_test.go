package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"efuelpos/backend/internal/domain"
	"efuelpos/backend/internal/facade"
	"efuelpos/backend/internal/service"
	"efuelpos/backend/internal/store/local"
	"efuelpos/backend/internal/store/memory"
	"efuelpos/backend/internal/syncq"
)

type offlineNetwork struct{}

func (offlineNetwork) Online() bool         { return false }
func (offlineNetwork) Changes() <-chan bool { return nil }

type apiHarness struct {
	handler http.Handler
	storage *facade.Facade
	auth    *AuthManager
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	db, err := local.Open(filepath.Join(t.TempDir(), "kiosk.db"))
	if err != nil {
		t.Fatalf("open local store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	remote := memory.New()
	queue := syncq.New(db, remote, offlineNetwork{}, syncq.DefaultMaxRetries, time.Minute)
	storage := facade.New(remote, db, queue, nil)

	for _, account := range []domain.UserAccount{
		{Username: "admin", Password: "admin-rahasia", Role: "admin", Active: true, CreatedAt: time.Now().UTC()},
		{Username: "budi", Password: "kasir-rahasia", Role: "cashier", Active: true, CreatedAt: time.Now().UTC()},
	} {
		if err := storage.CreateUser(context.Background(), account); err != nil {
			t.Fatalf("seed user %s: %v", account.Username, err)
		}
	}

	auth := NewAuthManager(testSecret, time.Hour, storage)
	svc := service.New(storage)
	api := New(svc, storage, queue, auth, "http://127.0.0.1:3000")
	return &apiHarness{handler: api.Handler(), storage: storage, auth: auth}
}

func (h *apiHarness) token(t *testing.T, username string, password string) string {
	t.Helper()
	resp, err := h.auth.Login(domain.LoginRequest{Username: username, Password: password})
	if err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return resp.AccessToken
}

func (h *apiHarness) do(t *testing.T, method string, path string, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status      string `json:"status"`
		QueueLength int    `json:"queue_length"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.QueueLength != 0 {
		t.Fatalf("body = %+v", body)
	}
}

func TestRoutesRequireAuth(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodGet, "/api/v1/sales", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/sales", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec.Code)
	}
}

func TestAdminRoutesRejectCashier(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	for _, path := range []string{"/api/v1/employees", "/api/v1/settings", "/api/v1/audit-logs", "/api/v1/users/cashiers"} {
		rec := h.do(t, http.MethodGet, path, cashier, nil)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", path, rec.Code)
		}
	}
}

func TestLoginEndpoint(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: "budi", Password: "kasir-rahasia",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken == "" || resp.Role != "cashier" {
		t.Fatalf("response = %+v", resp)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: "budi", Password: "salah",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: status = %d, want 401", rec.Code)
	}
}

func TestLoginRateLimited(t *testing.T) {
	h := newAPIHarness(t)

	bad := domain.LoginRequest{Username: "budi", Password: "salah"}
	for i := 0; i < 5; i++ {
		if rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", bad); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d, want 401", i, rec.Code)
		}
	}
	rec := h.do(t, http.MethodPost, "/api/v1/auth/login", "", bad)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("sixth attempt: status = %d, want 429", rec.Code)
	}
}

func TestSaleRoundTrip(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	if _, err := h.storage.AddInventoryLog(context.Background(), domain.NewInventoryLog{
		Type: domain.InventoryIn, Volume: 100,
	}); err != nil {
		t.Fatalf("fill tank: %v", err)
	}

	rec := h.do(t, http.MethodPost, "/api/v1/sales", cashier, service.SaleRequest{Nominal: 10000})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var result service.SaleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Transaction.Liter != 0.7 || !result.Transaction.IsSpecialRule {
		t.Fatalf("transaction = %+v", result.Transaction)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/sales", cashier, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}
	var list struct {
		Transactions []domain.TransactionRecord `json:"transactions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Transactions) != 1 || list.Transactions[0].ID != result.Transaction.ID {
		t.Fatalf("transactions = %+v", list.Transactions)
	}

	rec = h.do(t, http.MethodGet, "/api/v1/stock", cashier, nil)
	var stock struct {
		Liters float64 `json:"liters"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stock); err != nil {
		t.Fatalf("decode stock: %v", err)
	}
	if stock.Liters != 99.3 {
		t.Fatalf("stock = %v, want 99.3", stock.Liters)
	}
}

func TestSaleInsufficientStockConflict(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	rec := h.do(t, http.MethodPost, "/api/v1/sales", cashier, service.SaleRequest{Nominal: 10000})
	if rec.Code != http.StatusConflict {
		t.Fatalf("empty tank sale: status = %d, want 409", rec.Code)
	}
}

func TestInventoryValidationMapsTo422(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	rec := h.do(t, http.MethodPost, "/api/v1/inventory", cashier, domain.NewInventoryLog{
		Type: "BOGUS", Volume: 10,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rec.Code, rec.Body.String())
	}
}

func TestUnknownJSONFieldRejected(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	rec := h.do(t, http.MethodPost, "/api/v1/sales", cashier, map[string]any{
		"nominal": 10000, "surprise": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVoidRequestApprovalOverHTTP(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")
	admin := h.token(t, "admin", "admin-rahasia")

	if _, err := h.storage.AddInventoryLog(context.Background(), domain.NewInventoryLog{
		Type: domain.InventoryIn, Volume: 100,
	}); err != nil {
		t.Fatalf("fill tank: %v", err)
	}

	rec := h.do(t, http.MethodPost, "/api/v1/sales", cashier, service.SaleRequest{Nominal: 10000})
	var sale service.SaleResult
	if err := json.Unmarshal(rec.Body.Bytes(), &sale); err != nil {
		t.Fatalf("decode sale: %v", err)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/requests", cashier, domain.VoidRequest{
		Type: domain.RequestTransactionVoid, TargetID: sale.Transaction.ID, Reason: "salah input",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("file request: status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var filed domain.VoidRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &filed); err != nil {
		t.Fatalf("decode request: %v", err)
	}

	// Approval routes are admin-only at the mux level.
	rec = h.do(t, http.MethodPost, "/api/v1/requests/"+filed.ID+"/approve", cashier, map[string]any{})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("cashier approval: status = %d, want 403", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/v1/requests/"+filed.ID+"/approve", admin, map[string]any{})
	if rec.Code != http.StatusOK {
		t.Fatalf("admin approval: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	stock, err := h.storage.CurrentStock(context.Background())
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if stock != 100 {
		t.Fatalf("stock after approved void = %v, want 100", stock)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newAPIHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sales", nil)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://127.0.0.1:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newAPIHarness(t)
	cashier := h.token(t, "budi", "kasir-rahasia")

	rec := h.do(t, http.MethodDelete, "/api/v1/sales", cashier, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
