package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
	"github.com/MH-Project10/Kasir-App/internal/service"
	"github.com/MH-Project10/Kasir-App/internal/store/memory"
)

// newTestAPI builds a full API with an in-memory store, real AuthManager and
// real Service so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	repo := memory.NewSeeded()
	svc := service.New(repo, nil, 5*time.Second)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func doJSON(t *testing.T, api *API, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)
	return res
}

func loginAs(t *testing.T, api *API, username, password string) string {
	t.Helper()

	res := doJSON(t, api, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{
		Username: username,
		Password: password,
	})
	if res.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, res.Code, res.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func loginAdmin(t *testing.T, api *API) string {
	return loginAs(t, api, "admin", "admin123")
}

func registerCashier(t *testing.T, api *API) string {
	t.Helper()

	res := doJSON(t, api, http.MethodPost, "/api/v1/auth/register", "", domain.RegisterRequest{
		Username: "kasir1",
		Password: "rahasia-1",
		FullName: "Kasir Satu",
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("register cashier: status %d body %s", res.Code, res.Body.String())
	}
	return loginAs(t, api, "kasir1", "rahasia-1")
}

func createProductViaAPI(t *testing.T, api *API, token, sku string, stock int) domain.Product {
	t.Helper()

	res := doJSON(t, api, http.MethodPost, "/api/v1/products", token, domain.ProductCreateRequest{
		Name:               "Produk " + sku,
		SKU:                sku,
		Category:           "sparepart",
		PriceRegularCents:  10000,
		PriceSalesCents:    9500,
		PriceWorkshopCents: 9000,
		StockQty:           stock,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("create product: status %d body %s", res.Code, res.Body.String())
	}
	var envelope struct {
		Product domain.Product `json:"product"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	return envelope.Product
}

func TestHealthEndpoint(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api, http.MethodGet, "/healthz", "", nil)
	if res.Code != http.StatusOK {
		t.Fatalf("status %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `"ok":true`) {
		t.Fatalf("body %s", res.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{
		"/api/v1/products",
		"/api/v1/transactions",
		"/api/v1/reports/daily",
		"/api/v1/dashboard/stats",
	} {
		res := doJSON(t, api, http.MethodGet, path, "", nil)
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d, want 401", path, res.Code)
		}
	}
}

func TestProtectedRoutesRejectBadToken(t *testing.T) {
	api := newTestAPI(t)

	res := doJSON(t, api, http.MethodGet, "/api/v1/products", "not-a-real-token", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", res.Code)
	}
}

func TestCheckoutOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)
	cashier := registerCashier(t, api)
	product := createProductViaAPI(t, api, admin, "SKU-HTTP-1", 10)

	res := doJSON(t, api, http.MethodPost, "/api/v1/transactions", cashier, domain.TransactionCreateRequest{
		CustomerType:  "sales",
		Items:         []domain.CartItem{{ProductID: product.ID, Qty: 2}},
		PaymentMethod: "cash",
		PaymentCents:  20000,
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("checkout: status %d body %s", res.Code, res.Body.String())
	}

	var envelope struct {
		Transaction domain.Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	tx := envelope.Transaction
	if tx.TotalCents != 18050 {
		t.Fatalf("total %d, want 18050", tx.TotalCents)
	}
	if tx.ChangeCents != 1950 {
		t.Fatalf("change %d, want 1950", tx.ChangeCents)
	}
	if !strings.HasPrefix(tx.Number, "TRX") {
		t.Fatalf("transaction number %q", tx.Number)
	}
	if tx.CashierName != "kasir1" {
		t.Fatalf("cashier %q", tx.CashierName)
	}

	// The transaction must be fetchable by id.
	res = doJSON(t, api, http.MethodGet, "/api/v1/transactions/"+tx.ID, cashier, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("get transaction: status %d", res.Code)
	}
}

func TestCheckoutErrorStatuses(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)
	product := createProductViaAPI(t, api, admin, "SKU-ERR-1", 1)

	cases := []struct {
		name   string
		req    domain.TransactionCreateRequest
		status int
	}{
		{
			"insufficient payment",
			domain.TransactionCreateRequest{
				CustomerType:  "regular",
				Items:         []domain.CartItem{{ProductID: product.ID, Qty: 1}},
				PaymentMethod: "cash",
				PaymentCents:  1,
			},
			http.StatusBadRequest,
		},
		{
			"insufficient stock",
			domain.TransactionCreateRequest{
				CustomerType:  "regular",
				Items:         []domain.CartItem{{ProductID: product.ID, Qty: 5}},
				PaymentMethod: "cash",
				PaymentCents:  100000,
			},
			http.StatusConflict,
		},
		{
			"unknown product",
			domain.TransactionCreateRequest{
				CustomerType:  "regular",
				Items:         []domain.CartItem{{ProductID: "prd-missing", Qty: 1}},
				PaymentMethod: "cash",
				PaymentCents:  100000,
			},
			http.StatusNotFound,
		},
		{
			"unknown customer type",
			domain.TransactionCreateRequest{
				CustomerType:  "vip",
				Items:         []domain.CartItem{{ProductID: product.ID, Qty: 1}},
				PaymentMethod: "cash",
				PaymentCents:  100000,
			},
			http.StatusNotFound,
		},
	}
	for _, tc := range cases {
		res := doJSON(t, api, http.MethodPost, "/api/v1/transactions", admin, tc.req)
		if res.Code != tc.status {
			t.Fatalf("%s: status %d, want %d (body %s)", tc.name, res.Code, tc.status, res.Body.String())
		}
	}
}

func TestCreateProductForbiddenForCashier(t *testing.T) {
	api := newTestAPI(t)
	cashier := registerCashier(t, api)

	res := doJSON(t, api, http.MethodPost, "/api/v1/products", cashier, domain.ProductCreateRequest{
		Name: "Produk", SKU: "SKU-FORBID-1", PriceRegularCents: 1000, PriceSalesCents: 1000, PriceWorkshopCents: 1000,
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("status %d, want 403", res.Code)
	}
}

func TestCreateProductDuplicateSKUConflicts(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)
	createProductViaAPI(t, api, admin, "SKU-DUP-1", 10)

	res := doJSON(t, api, http.MethodPost, "/api/v1/products", admin, domain.ProductCreateRequest{
		Name: "Produk Lain", SKU: "sku-dup-1", PriceRegularCents: 1000, PriceSalesCents: 1000, PriceWorkshopCents: 1000,
	})
	if res.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409 (body %s)", res.Code, res.Body.String())
	}
}

func TestDailyReportFormats(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/reports/daily", admin, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("json report: status %d", res.Code)
	}
	var summary domain.ReportSummary
	if err := json.Unmarshal(res.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.Period != "daily" {
		t.Fatalf("period %q", summary.Period)
	}

	res = doJSON(t, api, http.MethodGet, "/api/v1/reports/daily?format=csv", admin, nil)
	if got := res.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/csv") {
		t.Fatalf("csv content type %q", got)
	}
	if !strings.HasPrefix(res.Body.String(), "section,key,value") {
		t.Fatalf("csv body %s", res.Body.String())
	}

	res = doJSON(t, api, http.MethodGet, "/api/v1/reports/daily?format=html", admin, nil)
	if got := res.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/html") {
		t.Fatalf("html content type %q", got)
	}
}

func TestReportBadDatesReturn400(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	for _, path := range []string{
		"/api/v1/reports/daily?date=31-12-2025",
		"/api/v1/reports/weekly?start_date=next-week",
		"/api/v1/reports/monthly?month=2025-13",
		"/api/v1/reports/range?from=2025-06-10&to=2025-06-01",
	} {
		res := doJSON(t, api, http.MethodGet, path, admin, nil)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: status %d, want 400", path, res.Code)
		}
	}
}

func TestDashboardStatsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/dashboard/stats", admin, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("status %d body %s", res.Code, res.Body.String())
	}
	var stats domain.DashboardStats
	if err := json.Unmarshal(res.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalProducts == 0 {
		t.Fatal("seeded store should report products")
	}
}

func TestCustomerTypesSeeded(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	res := doJSON(t, api, http.MethodGet, "/api/v1/customer-types", admin, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("status %d", res.Code)
	}
	var envelope struct {
		CustomerTypes []domain.CustomerType `json:"customer_types"`
	}
	if err := json.Unmarshal(res.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.CustomerTypes) != 3 {
		t.Fatalf("got %d customer types, want 3", len(envelope.CustomerTypes))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	res := doJSON(t, api, http.MethodDelete, "/api/v1/transactions", admin, nil)
	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status %d, want 405", res.Code)
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(t)
	admin := loginAdmin(t, api)

	body := []byte(`{"name":"Produk","sku":"SKU-UNK-1","bogus_field":true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", admin))
	res := httptest.NewRecorder()
	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", res.Code)
	}
}
