package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUseCase struct {
	placeInput *dto.PlaceOrderInput
	placeErr   error
	statusArgs []string
	statusErr  error
	tenantSeen string
}

func (m *mockUseCase) PlaceOrder(_ context.Context, in *dto.PlaceOrderInput) (*dto.Receipt, error) {
	m.placeInput = in
	if m.placeErr != nil {
		return nil, m.placeErr
	}
	return &dto.Receipt{OrderID: "ABCDEF12", ID: "abcdef12-0000", Total: decimal.NewFromInt(64), Summary: "Total: $64.00"}, nil
}

func (m *mockUseCase) UpdateStatus(_ context.Context, tenantID, orderID, status string) (*model.Order, error) {
	m.statusArgs = []string{tenantID, orderID, status}
	if m.statusErr != nil {
		return nil, m.statusErr
	}
	return &model.Order{BaseModel: model.BaseModel{ID: orderID}, Status: model.OrderStatus(status)}, nil
}

func (m *mockUseCase) ListOrders(_ context.Context, tenantID, status string) ([]model.Order, error) {
	m.tenantSeen = tenantID
	return []model.Order{{Status: model.OrderStatusPending}}, nil
}

func (m *mockUseCase) GetOrder(_ context.Context, tenantID, orderID string) (*model.Order, error) {
	return nil, apperror.ErrOrderNotFound
}

func (m *mockUseCase) GetAvailability(_ context.Context, slug, date string) ([]string, error) {
	if date == "" {
		return nil, apperror.ErrInvalidDate
	}
	return []string{"09:30"}, nil
}

func (m *mockUseCase) Count(context.Context) (int, error) { return 0, nil }

func newRouter(uc *mockUseCase, m *metrics.ServerMetrics) http.Handler {
	h := NewOrderHandler(uc, m, logger.NewNop())
	r := chi.NewRouter()
	r.Use(auth.Middleware)
	r.Route("/api/v1/public/{slug}", h.PublicRoutes)
	r.Route("/api/v1/orders", h.OwnerRoutes)
	return r
}

func TestPlaceOrder_Created(t *testing.T) {
	uc := &mockUseCase{}
	m := metrics.NewServerMetrics("test", prometheus.NewRegistry())
	router := newRouter(uc, m)

	body := `{"customer_name":"Ana","delivery_type":"pickup","items":[{"product_id":"p1","quantity":2,"variant_name":"Large","extras":"Cheese"}],"source":"web"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/barber-x/orders", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "k-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var receipt map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, "ABCDEF12", receipt["order_id"])

	require.NotNil(t, uc.placeInput)
	assert.Equal(t, "barber-x", uc.placeInput.Slug)
	assert.Equal(t, "k-1", uc.placeInput.IdempotencyKey)
	require.Len(t, uc.placeInput.Items, 1)
	assert.Equal(t, 2.0, uc.placeInput.Items[0].Quantity)
	assert.Equal(t, "Cheese", uc.placeInput.Items[0].Extras)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.OrdersPlaced.WithLabelValues("success")))
}

func TestPlaceOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{apperror.ErrInsufficientCredit, http.StatusPaymentRequired, "insufficient_credit"},
		{apperror.ErrInsufficientStock.WithMessage("insufficient stock for Burger"), http.StatusBadRequest, "insufficient_stock"},
		{apperror.ErrTenantNotFound, http.StatusNotFound, "tenant_not_found"},
		{apperror.ErrAddressRequired, http.StatusBadRequest, "address_required"},
		{apperror.ErrContention, http.StatusConflict, "contention"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			m := metrics.NewServerMetrics("test", prometheus.NewRegistry())
			router := newRouter(&mockUseCase{placeErr: tc.err}, m)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/public/x/orders", strings.NewReader(`{"customer_name":"A","items":[]}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
			assert.Equal(t, float64(1), testutil.ToFloat64(m.OrdersPlaced.WithLabelValues(tc.code)))
		})
	}
}

func TestPlaceOrder_BadBody(t *testing.T) {
	router := newRouter(&mockUseCase{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/public/x/orders", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOwnerRoutes_UseTenantFromHeader(t *testing.T) {
	uc := &mockUseCase{}
	router := newRouter(uc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?status=pending", nil)
	req.Header.Set(auth.HeaderTenantID, "t-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "t-1", uc.tenantSeen)

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/orders/o-1/status", strings.NewReader(`{"status":"completed"}`))
	req.Header.Set(auth.HeaderTenantID, "t-1")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"t-1", "o-1", "completed"}, uc.statusArgs)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-1", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetAvailability(t *testing.T) {
	router := newRouter(&mockUseCase{}, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/barber-x/availability?date=2026-03-10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"busy":["09:30"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/barber-x/availability", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
