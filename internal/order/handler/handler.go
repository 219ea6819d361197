package handler

import (
	"net/http"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/auth"
	"github.com/fekuna/omnipos-storefront-service/internal/httpx"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/fekuna/omnipos-storefront-service/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type OrderHandler struct {
	uc      order.UseCase
	metrics *metrics.ServerMetrics
	logger  logger.ZapLogger
	tracer  trace.Tracer
}

// NewOrderHandler builds the order endpoints. m may be nil.
func NewOrderHandler(uc order.UseCase, m *metrics.ServerMetrics, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:      uc,
		metrics: m,
		logger:  log,
		tracer:  otel.Tracer("order-http"),
	}
}

// PublicRoutes are mounted under /api/v1/public/{slug}.
func (h *OrderHandler) PublicRoutes(r chi.Router) {
	r.Post("/orders", h.PlaceOrder)
	r.Get("/availability", h.GetAvailability)
}

// OwnerRoutes are mounted under /api/v1/orders behind tenant auth.
func (h *OrderHandler) OwnerRoutes(r chi.Router) {
	r.Get("/", h.ListOrders)
	r.Get("/{id}", h.GetOrder)
	r.Patch("/{id}/status", h.UpdateStatus)
}

type placeOrderRequest struct {
	CustomerName string              `json:"customer_name"`
	Address      string              `json:"address"`
	Appointment  string              `json:"appointment"`
	Notes        string              `json:"notes"`
	DeliveryType string              `json:"delivery_type"`
	Items        []dto.CartLineInput `json:"items"`
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PlaceOrder")
	defer span.End()

	slug := chi.URLParam(r, "slug")
	span.SetAttributes(attribute.String("tenant.slug", slug))

	var req placeOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.observe("invalid_input")
		httpx.RespondAppError(w, h.logger, err)
		return
	}

	receipt, err := h.uc.PlaceOrder(ctx, &dto.PlaceOrderInput{
		Slug:           slug,
		CustomerName:   req.CustomerName,
		Address:        req.Address,
		Appointment:    req.Appointment,
		Notes:          req.Notes,
		DeliveryType:   req.DeliveryType,
		Items:          req.Items,
		IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
	})
	if err != nil {
		h.observe(outcome(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "place order failed")
		httpx.RespondAppError(w, h.logger, err)
		return
	}

	h.observe("success")
	span.SetAttributes(attribute.String("order.id", receipt.ID))
	httpx.RespondJSON(w, http.StatusCreated, receipt)
}

func (h *OrderHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	busy, err := h.uc.GetAvailability(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("date"))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"busy": busy})
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.uc.ListOrders(r.Context(), auth.GetTenantID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, map[string]interface{}{"orders": orders, "count": len(orders)})
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.uc.GetOrder(r.Context(), auth.GetTenantID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, o)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateOrderStatus")
	defer span.End()

	var req updateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}

	o, err := h.uc.UpdateStatus(ctx, auth.GetTenantID(ctx), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httpx.RespondAppError(w, h.logger, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) observe(outcome string) {
	if h.metrics != nil {
		h.metrics.OrdersPlaced.WithLabelValues(outcome).Inc()
	}
}

func outcome(err error) string {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Code
	}
	return apperror.ErrInternal.Code
}
