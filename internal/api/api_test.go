package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/repository/memory"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type testServer struct {
	router   *gin.Engine
	tenant   uuid.UUID
	variant  *domain.Variant
	customer *domain.Customer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(service.Dependencies{Store: memory.NewStore()})
	tc := domain.TenantContext{TenantID: uuid.New()}
	ctx := context.Background()

	product, err := svc.Catalog.CreateProduct(ctx, tc, service.CreateProductInput{Name: "Ribeye"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	variant, err := svc.Catalog.CreateVariant(ctx, tc, service.CreateVariantInput{
		ProductID:           product.ID,
		Name:                "Ribeye 1in",
		WeightType:          domain.CatchWeight,
		Unit:                domain.UnitLb,
		DefaultPricePerUnit: decimal.NewFromInt(12),
	})
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	customer, err := svc.Catalog.CreateCustomer(ctx, tc, service.CreateCustomerInput{BusinessName: "Bistro"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}

	return &testServer{
		router:   NewRouter(svc, RouterConfig{Metrics: metrics.New()}),
		tenant:   tc.TenantID,
		variant:  variant,
		customer: customer,
	}
}

func (s *testServer) do(t *testing.T, tenant uuid.UUID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tenant != uuid.Nil {
		req.Header.Set(middleware.TenantHeader, tenant.String())
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) placeOrder(t *testing.T) map[string]any {
	t.Helper()
	rec := s.do(t, s.tenant, http.MethodPost, "/api/v1/orders", map[string]any{
		"customer_id": s.customer.ID,
		"items":       []map[string]any{{"variant_id": s.variant.ID, "quantity": 5}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("place order status = %d body = %s", rec.Code, rec.Body)
	}
	var res struct {
		Order map[string]any `json:"order"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return res.Order
}

func TestTenantHeaderRequired(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, uuid.Nil, http.MethodGet, "/api/v1/orders", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	req.Header.Set(middleware.TenantHeader, s.tenant.String())
	req.Header.Set(middleware.UserHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad user header status = %d, want 400", rec.Code)
	}
}

func TestPlaceOrderOverHTTP(t *testing.T) {
	s := newTestServer(t)
	order := s.placeOrder(t)

	if order["estimated_total"] != "60" {
		t.Errorf("estimated_total = %v, want 60", order["estimated_total"])
	}
	if order["status"] != "pending" {
		t.Errorf("status = %v", order["status"])
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	order := s.placeOrder(t)
	orderPath := "/api/v1/orders/" + order["id"].(string)

	tests := []struct {
		name   string
		tenant uuid.UUID
		method string
		path   string
		body   any
		want   int
	}{
		{"invalid transition", s.tenant, http.MethodPatch, orderPath + "/status", map[string]string{"status": "delivered"}, http.StatusConflict},
		{"unknown status", s.tenant, http.MethodPatch, orderPath + "/status", map[string]string{"status": "lost"}, http.StatusBadRequest},
		{"not found", s.tenant, http.MethodGet, "/api/v1/orders/" + uuid.NewString(), nil, http.StatusNotFound},
		{"other tenant", uuid.New(), http.MethodGet, orderPath, nil, http.StatusForbidden},
		{"malformed id", s.tenant, http.MethodGet, "/api/v1/orders/abc", nil, http.StatusBadRequest},
		{"validation", s.tenant, http.MethodPost, "/api/v1/orders", map[string]any{"customer_id": s.customer.ID, "items": []any{}}, http.StatusBadRequest},
		{"pick list before confirm", s.tenant, http.MethodPost, orderPath + "/pick-list", nil, http.StatusConflict},
		{"ok transition", s.tenant, http.MethodPatch, orderPath + "/status", map[string]string{"status": "confirmed"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.tenant, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d, body = %s", rec.Code, tt.want, rec.Body)
			}
			if tt.want >= 400 && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("body missing error field: %s", rec.Body)
			}
		})
	}
}

func TestValidationErrorListsFields(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, s.tenant, http.MethodPost, "/api/v1/lots", map[string]any{
		"product_id":        uuid.New(),
		"initial_weight_lb": 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body.Fields["lot_number"]; !ok {
		t.Errorf("fields = %v, want lot_number", body.Fields)
	}
	if _, ok := body.Fields["initial_weight_lb"]; !ok {
		t.Errorf("fields = %v, want initial_weight_lb", body.Fields)
	}
}

func TestCuttingSessionAcceptsCalendarDate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, s.tenant, http.MethodPost, "/api/v1/lots", map[string]any{
		"lot_number":        "CARCASS-9",
		"product_id":        s.variant.ProductID,
		"status":            "available",
		"initial_weight_lb": "100",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lot status = %d body = %s", rec.Code, rec.Body)
	}
	var lot domain.InventoryLot
	if err := json.Unmarshal(rec.Body.Bytes(), &lot); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = s.do(t, s.tenant, http.MethodPost, "/api/v1/cutting-sessions", map[string]any{
		"source_lot_id":   lot.ID,
		"input_weight_lb": 100,
		"session_date":    "2024-03-05",
		"items": []map[string]any{
			{"variant_id": s.variant.ID, "quantity": 10, "weight_lb": 40},
			{"variant_id": s.variant.ID, "quantity": 8, "weight_lb": 35},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("cutting status = %d body = %s", rec.Code, rec.Body)
	}
	var res struct {
		YieldPercentage string `json:"yield_percentage"`
		WasteWeight     string `json:"waste_weight_lb"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.YieldPercentage != "75" || res.WasteWeight != "25" {
		t.Errorf("yield = %s waste = %s", res.YieldPercentage, res.WasteWeight)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, uuid.Nil, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Errorf("response missing %s", middleware.RequestIDHeader)
	}
	s.placeOrder(t)
	rec = s.do(t, uuid.Nil, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "butcherline_http_requests_total") {
		t.Errorf("metrics output missing request counter")
	}
}
